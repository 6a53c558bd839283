package components

import (
	"testing"
	"time"
)

func TestToasts_ReplaceByID(t *testing.T) {
	c := NewToastsComponent(5, time.Minute)
	now := time.Now()

	c.Add(Toast{ID: "ws-connected", Level: "success", Message: "first", At: now})
	c.Add(Toast{ID: "block-1", Level: "info", Message: "block", At: now})
	c.Add(Toast{ID: "ws-connected", Level: "success", Message: "second", At: now})

	got := c.Toasts()
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].ID != "block-1" || got[1].Message != "second" {
		t.Errorf("toasts = %+v", got)
	}
}

func TestToasts_MaxAndPrune(t *testing.T) {
	c := NewToastsComponent(2, 5*time.Second)
	start := time.Now()

	c.Add(Toast{ID: "a", At: start})
	c.Add(Toast{ID: "b", At: start.Add(3 * time.Second)})
	c.Add(Toast{ID: "c", At: start.Add(4 * time.Second)})

	if got := c.Toasts(); len(got) != 2 || got[0].ID != "b" {
		t.Fatalf("toasts = %+v, want b and c", got)
	}

	c.Prune(start.Add(8 * time.Second))
	if got := c.Toasts(); len(got) != 1 || got[0].ID != "c" {
		t.Errorf("after prune = %+v, want only c", got)
	}

	c.Clear()
	if c.View() != "" {
		t.Error("View() not empty after Clear")
	}
}

func TestBlocks_Scroll(t *testing.T) {
	b := NewBlocksComponent(2)
	b.Set([]BlockRow{{Index: 3}, {Index: 2}, {Index: 1}})

	b.ScrollUp()
	if b.offset != 0 {
		t.Errorf("offset = %d after scrolling past top", b.offset)
	}
	b.ScrollDown()
	b.ScrollDown()
	if b.offset != 1 {
		t.Errorf("offset = %d, want 1", b.offset)
	}

	b.Set([]BlockRow{{Index: 3}})
	if b.offset != 0 {
		t.Errorf("offset = %d after shrinking", b.offset)
	}
}
