package models

import "testing"

func TestMessageDetail_Permissions(t *testing.T) {
	m := &MessageDetail{
		FromUser: UserSummary{Username: "alice"},
		ToUser:   UserSummary{Username: "bob"},
	}

	for _, u := range []string{"alice", "bob"} {
		if !m.CanView(u) {
			t.Errorf("CanView(%q) = false, want true", u)
		}
	}
	if m.CanView("carol") {
		t.Error("CanView(carol) = true, want false")
	}

	if !m.CanMarkRead("bob") {
		t.Error("CanMarkRead(bob) = false, want true")
	}
	if m.CanMarkRead("alice") || m.CanMarkRead("carol") {
		t.Error("only the recipient may mark a message read")
	}
}
