package caller

import "testing"

func callA(dc *Distinct_caller_t, taskID int) (bool, string) { return dc.Distinct(taskID) }
func callB(dc *Distinct_caller_t, taskID int) (bool, string) { return dc.Distinct(taskID) }

func TestDistinctReportsEachCallChainOnce(t *testing.T) {
	dc := Distinct_caller_t{Enabled: true}

	// The chain includes this function's own call site, so the repeat
	// must come from the same line: both sightings go through one loop.
	for i := 0; i < 2; i++ {
		novel, trace := callA(&dc, 0)
		if i == 0 && (!novel || trace == "") {
			t.Fatal("expected the first sighting of a call chain to be novel with a trace")
		}
		if i == 1 && novel {
			t.Fatal("expected a repeat of the same call chain from the same task to not be novel")
		}
	}
	if novel, _ := callB(&dc, 0); !novel {
		t.Fatal("expected a distinct call chain to be novel")
	}
	if dc.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", dc.Len())
	}
}

func TestDistinctTracksTaskIdentitySeparately(t *testing.T) {
	dc := Distinct_caller_t{Enabled: true}

	// All three sightings share one call site, so only the task id varies.
	for i, taskID := range []int{0, 1, 0} {
		novel, _ := callA(&dc, taskID)
		if i == 0 && !novel {
			t.Fatal("expected task 0's first sighting of this call chain to be novel")
		}
		if i == 1 && !novel {
			t.Fatal("expected task 1 hitting the same call chain to be novel too")
		}
		if i == 2 && novel {
			t.Fatal("expected task 0's repeat to not be novel")
		}
	}
}

func TestDistinctDisabledNeverReports(t *testing.T) {
	dc := Distinct_caller_t{}
	if novel, _ := dc.Distinct(0); novel {
		t.Fatal("expected a disabled tracker to never report a novel chain")
	}
}

func TestDistinctHonorsWhitelist(t *testing.T) {
	dc := Distinct_caller_t{Enabled: true, Whitel: map[string]bool{"caller.TestDistinctHonorsWhitelist": true}}
	// Called through callA: Distinct skips its direct caller, so the
	// chain starts at this test function.
	if novel, _ := callA(&dc, 0); novel {
		t.Fatal("expected a whitelisted caller to never report a novel chain")
	}
}
