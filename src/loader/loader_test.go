package loader

import "testing"

func TestPlaceholderIsNotCountedAsAnApp(t *testing.T) {
	if GetNumApp() != 0 {
		t.Fatalf("GetNumApp() = %d, want 0 in a checkout with no built apps", GetNumApp())
	}
}
