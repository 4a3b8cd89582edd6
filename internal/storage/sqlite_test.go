package storage

import (
	"path/filepath"
	"testing"
)

func TestSQLiteRoundTrip(t *testing.T) {
	st, err := NewSQLite(filepath.Join(t.TempDir(), "data", "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()

	if _, err := st.Read("missing"); err != ErrNotFound {
		t.Errorf("err = %v, want ErrNotFound", err)
	}

	if err := st.Write("chatbot_history", []byte(`[{"id":"1"}]`)); err != nil {
		t.Fatal(err)
	}
	got, err := st.Read("chatbot_history")
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != `[{"id":"1"}]` {
		t.Errorf("value = %q", got)
	}

	// Upsert overwrites
	if err := st.Write("chatbot_history", []byte(`[]`)); err != nil {
		t.Fatal(err)
	}
	got, _ = st.Read("chatbot_history")
	if string(got) != `[]` {
		t.Errorf("value after overwrite = %q", got)
	}

	if err := st.Delete("chatbot_history"); err != nil {
		t.Fatal(err)
	}
	if _, err := st.Read("chatbot_history"); err != ErrNotFound {
		t.Errorf("err after delete = %v, want ErrNotFound", err)
	}
}

func TestSQLitePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	st, err := NewSQLite(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := st.Write("active_chats", []byte("1756400000000")); err != nil {
		t.Fatal(err)
	}
	st.Close()

	st, err = NewSQLite(path)
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()
	got, err := st.Read("active_chats")
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "1756400000000" {
		t.Errorf("value = %q", got)
	}
}

func TestMemoryReturnsCopies(t *testing.T) {
	m := NewMemory()
	value := []byte("original")
	if err := m.Write("k", value); err != nil {
		t.Fatal(err)
	}

	value[0] = 'X'
	got, _ := m.Read("k")
	if string(got) != "original" {
		t.Error("store must not alias the caller's slice")
	}

	got[0] = 'Y'
	again, _ := m.Read("k")
	if string(again) != "original" {
		t.Error("reads must not alias the stored slice")
	}
}
