package service

import (
	"errors"
	"strings"
	"testing"

	"quizstorm/internal/model"
)

func newTestRegistry() *Registry {
	return NewRegistry(Deps{
		Source:      &stubSource{},
		Broadcaster: &recordingBroadcaster{},
	})
}

func TestCreateRoomCodeFormat(t *testing.T) {
	r := newTestRegistry()
	for i := 0; i < 50; i++ {
		session, err := r.CreateRoom(model.ModeCollab)
		if err != nil {
			t.Fatalf("CreateRoom: %v", err)
		}
		code := session.Code()
		if len(code) != codeLength {
			t.Fatalf("code %q length = %d, want %d", code, len(code), codeLength)
		}
		for _, c := range code {
			if !strings.ContainsRune(codeChars, c) {
				t.Fatalf("code %q contains %q outside the allowed charset", code, c)
			}
		}
	}
	if r.Count() != 50 {
		t.Errorf("room count = %d, want 50 unique codes", r.Count())
	}
}

func TestCreateRoomRejectsInvalidMode(t *testing.T) {
	r := newTestRegistry()
	if _, err := r.CreateRoom(model.Mode("speedrun")); !errors.Is(err, ErrInvalidMode) {
		t.Errorf("err = %v, want ErrInvalidMode", err)
	}
}

func TestGetIsCaseInsensitive(t *testing.T) {
	r := newTestRegistry()
	session, err := r.CreateRoom(model.ModeCompete)
	if err != nil {
		t.Fatalf("CreateRoom: %v", err)
	}

	if _, ok := r.Get(strings.ToLower(session.Code())); !ok {
		t.Error("lowercase lookup failed")
	}
	if _, ok := r.Get(session.Code()); !ok {
		t.Error("exact lookup failed")
	}
	if _, ok := r.Get("NOSUCH"); ok {
		t.Error("lookup of unknown code succeeded")
	}
}

func TestRemove(t *testing.T) {
	r := newTestRegistry()
	session, _ := r.CreateRoom(model.ModeCollab)

	r.Remove(session.Code())
	if _, ok := r.Get(session.Code()); ok {
		t.Error("room still resolvable after Remove")
	}
	if r.Count() != 0 {
		t.Errorf("count = %d, want 0", r.Count())
	}
}
