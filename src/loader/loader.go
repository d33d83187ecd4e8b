// Package loader embeds the kernel's fixed set of user programs. This
// is the Go-native replacement for a link-time generated app table:
// instead of an assembly stub that exposes get_num_app/get_app_data
// over linker symbols, the ELF images live under apps/ and go:embed
// bundles them into the binary at compile time.
package loader

import (
	"embed"
	"fmt"
	"sort"
)

//go:embed apps
var appsFS embed.FS

// placeholderName is the file checked in so the embed pattern above
// has something to match in a checkout with no real apps built yet;
// it is never reported as an application.
const placeholderName = "PLACEHOLDER.bin"

var appNames []string

func init() {
	entries, err := appsFS.ReadDir("apps")
	if err != nil {
		panic(fmt.Sprintf("loader: reading embedded apps: %v", err))
	}
	for _, e := range entries {
		if e.IsDir() || e.Name() == placeholderName {
			continue
		}
		appNames = append(appNames, e.Name())
	}
	sort.Strings(appNames)
}

// GetNumApp returns how many user programs are embedded.
func GetNumApp() int {
	return len(appNames)
}

// GetAppData returns the raw ELF bytes of the i'th embedded
// application, in the same fixed order every boot sees.
func GetAppData(i int) []byte {
	data, err := appsFS.ReadFile("apps/" + appNames[i])
	if err != nil {
		panic(fmt.Sprintf("loader: reading app %d (%s): %v", i, appNames[i], err))
	}
	return data
}
