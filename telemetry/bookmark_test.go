package telemetry

import "testing"

func hasBookmark(bookmarks []Bookmark, typ BookmarkType) bool {
	for _, bm := range bookmarks {
		if bm.Type == typ {
			return true
		}
	}
	return false
}

func TestBookmarkDetector_FeedingFrenzy(t *testing.T) {
	bd := NewBookmarkDetector(10)

	for i := 0; i < 5; i++ {
		bd.Check(WindowStats{WindowEndTick: int64(i * 600), Swimmers: 5, Eaten: 2})
	}

	bookmarks := bd.Check(WindowStats{WindowEndTick: 3000, Swimmers: 5, Eaten: 9})
	if !hasBookmark(bookmarks, BookmarkFeedingFrenzy) {
		t.Errorf("bookmarks = %+v, want feeding_frenzy", bookmarks)
	}
}

func TestBookmarkDetector_RemoteOutage(t *testing.T) {
	bd := NewBookmarkDetector(10)
	bd.Check(WindowStats{WindowEndTick: 600})

	bookmarks := bd.Check(WindowStats{WindowEndTick: 1200, RemoteFailures: 4})
	if !hasBookmark(bookmarks, BookmarkRemoteOutage) {
		t.Fatalf("bookmarks = %+v, want remote_outage", bookmarks)
	}

	// Still failing: already reported
	bookmarks = bd.Check(WindowStats{WindowEndTick: 1800, RemoteFailures: 6})
	if hasBookmark(bookmarks, BookmarkRemoteOutage) {
		t.Error("remote_outage reported twice for one outage")
	}
}

func TestBookmarkDetector_PopulationCrash(t *testing.T) {
	bd := NewBookmarkDetector(10)

	for i := 0; i < 5; i++ {
		bd.Check(WindowStats{WindowEndTick: int64(i * 600), Swimmers: 10})
	}

	bookmarks := bd.Check(WindowStats{WindowEndTick: 3000, Swimmers: 4})
	if !hasBookmark(bookmarks, BookmarkPopulationCrash) {
		t.Errorf("bookmarks = %+v, want population_crash", bookmarks)
	}
}

func TestBookmarkDetector_CapacityPressure(t *testing.T) {
	bd := NewBookmarkDetector(10)

	// Reported even on the very first window
	bookmarks := bd.Check(WindowStats{WindowEndTick: 600, SpawnRejected: 7})
	if !hasBookmark(bookmarks, BookmarkCapacityPressure) {
		t.Errorf("bookmarks = %+v, want capacity_pressure", bookmarks)
	}

	bookmarks = bd.Check(WindowStats{WindowEndTick: 1200, SpawnRejected: 1})
	if hasBookmark(bookmarks, BookmarkCapacityPressure) {
		t.Error("capacity_pressure for a single rejection")
	}
}

func TestBookmarkDetector_StableTank(t *testing.T) {
	bd := NewBookmarkDetector(10)

	triggered := -1
	for i := 0; i < 12; i++ {
		bookmarks := bd.Check(WindowStats{WindowEndTick: int64(i * 600), Swimmers: 8})
		if hasBookmark(bookmarks, BookmarkStableTank) {
			if triggered >= 0 {
				t.Fatalf("stable_tank triggered again at window %d", i)
			}
			triggered = i
		}
	}
	if triggered != 8 {
		t.Errorf("stable_tank triggered at window %d, want 8", triggered)
	}
}
