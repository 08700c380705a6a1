package auth

import "testing"

func TestServiceBasic(t *testing.T) {
	svc := New([]int64{-100, -200}, []int64{42})

	if !svc.IsAdmin(-100, 1) {
		t.Fatalf("admin chat member not recognized")
	}
	if !svc.IsAdmin(-200, 1) {
		t.Fatalf("second admin chat not recognized")
	}
	if !svc.IsAdmin(5, 42) {
		t.Fatalf("admin user in private chat not recognized")
	}
	if svc.IsAdmin(5, 7) {
		t.Fatalf("unexpected admin")
	}
	if svc.NotifyChat() != -100 {
		t.Fatalf("notify chat: want -100, got %d", svc.NotifyChat())
	}
	if !svc.IsAdminChat(-200) || svc.IsAdminChat(5) {
		t.Fatalf("IsAdminChat mismatch")
	}
}

func TestNilServiceDeniesEverything(t *testing.T) {
	var svc *Service
	if svc.IsAdmin(1, 1) || svc.IsAdminChat(1) || svc.NotifyChat() != 0 {
		t.Fatalf("nil service must deny")
	}
}
