package sync

import "testing"

func TestDiffPullDecisionTable(t *testing.T) {
	cases := []struct {
		name          string
		hasLocal      bool
		localVersion  int
		remoteVersion int
		hasWatermark  bool
		w             Watermark
		want          Action
	}{
		{"no local imports", false, 0, 3, false, Watermark{}, ActionImport},
		{"no watermark versions match skips", true, 2, 2, false, Watermark{}, ActionSkip},
		{"no watermark versions differ conflicts", true, 1, 2, false, Watermark{}, ActionConflict},
		{"neither changed skips", true, 2, 2, true, Watermark{2, 2}, ActionSkip},
		{"remote only changed fast-forwards", true, 2, 3, true, Watermark{2, 2}, ActionFastForward},
		{"local only changed skips (push candidate)", true, 3, 2, true, Watermark{2, 2}, ActionSkip},
		{"both changed merges", true, 3, 3, true, Watermark{2, 2}, ActionMerge},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := diffPull("slug", c.hasLocal, c.localVersion, c.remoteVersion, c.hasWatermark, c.w)
			if got.Action != c.want {
				t.Fatalf("diffPull() action = %s, want %s", got.Action, c.want)
			}
		})
	}
}

func TestDiffPushDecisionTable(t *testing.T) {
	cases := []struct {
		name          string
		localVersion  int
		hasRemote     bool
		remoteVersion int
		hasWatermark  bool
		w             Watermark
		want          Action
	}{
		{"no remote pushes", 1, false, 0, false, Watermark{}, ActionPush},
		{"no watermark versions match skips", 2, true, 2, false, Watermark{}, ActionSkip},
		{"no watermark versions differ conflicts", 2, true, 1, false, Watermark{}, ActionConflict},
		{"neither changed skips", 2, true, 2, true, Watermark{2, 2}, ActionSkip},
		{"local only changed pushes", 3, true, 2, true, Watermark{2, 2}, ActionPush},
		{"remote only changed skips (pull candidate)", 2, true, 3, true, Watermark{2, 2}, ActionSkip},
		{"both changed always conflicts, never auto-merges", 3, true, 3, true, Watermark{2, 2}, ActionConflict},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := diffPush("slug", c.localVersion, c.hasRemote, c.remoteVersion, c.hasWatermark, c.w)
			if got.Action != c.want {
				t.Fatalf("diffPush() action = %s, want %s", got.Action, c.want)
			}
		})
	}
}
