package identity

import "testing"

func TestStaticSessionLifecycle(t *testing.T) {
	p := NewStatic()
	defer p.Close()

	if p.Current() != nil {
		t.Fatal("should start signed out")
	}

	p.SignIn("u1")
	ev := <-p.Events()
	if ev.Session == nil || ev.Session.UserID != "u1" {
		t.Fatalf("unexpected event: %+v", ev)
	}
	if cur := p.Current(); cur == nil || cur.UserID != "u1" {
		t.Fatalf("unexpected current session: %+v", cur)
	}

	p.SignOut()
	ev = <-p.Events()
	if ev.Session != nil {
		t.Fatalf("sign-out event should carry no session: %+v", ev)
	}
	if p.Current() != nil {
		t.Fatal("should be signed out")
	}
}

func TestSignInIgnoresEmptyUserID(t *testing.T) {
	p := NewStatic()
	defer p.Close()

	p.SignIn("")
	if p.Current() != nil {
		t.Fatal("empty user id must not create a session")
	}
	select {
	case ev := <-p.Events():
		t.Fatalf("no event expected, got %+v", ev)
	default:
	}
}
