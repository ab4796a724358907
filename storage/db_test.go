package storage

import (
	"errors"
	"testing"
)

func TestMemDBPutGetDelete(t *testing.T) {
	db := NewMemDB()
	defer db.Close()

	if _, err := db.Get([]byte("missing")); !errors.Is(err, ErrKeyNotFound) {
		t.Fatalf("expected ErrKeyNotFound, got %v", err)
	}
	if err := db.Put([]byte("k"), []byte("v")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := db.Get([]byte("k"))
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != "v" {
		t.Fatalf("expected v, got %q", got)
	}
	has, err := db.Has([]byte("k"))
	if err != nil || !has {
		t.Fatalf("Has: has=%v err=%v", has, err)
	}
	if err := db.Delete([]byte("k")); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := db.Get([]byte("k")); !errors.Is(err, ErrKeyNotFound) {
		t.Fatalf("expected deleted key to be gone, got %v", err)
	}
}

func TestMemDBValueCopies(t *testing.T) {
	db := NewMemDB()
	defer db.Close()

	value := []byte("original")
	if err := db.Put([]byte("k"), value); err != nil {
		t.Fatalf("Put: %v", err)
	}
	value[0] = 'X'
	got, err := db.Get([]byte("k"))
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != "original" {
		t.Fatalf("stored value aliased caller slice: %q", got)
	}
	got[0] = 'Y'
	again, _ := db.Get([]byte("k"))
	if string(again) != "original" {
		t.Fatalf("returned value aliased store: %q", again)
	}
}

func TestMemDBIteratePrefixOrdered(t *testing.T) {
	db := NewMemDB()
	defer db.Close()

	pairs := map[string]string{
		"acc/b": "2",
		"acc/a": "1",
		"acc/c": "3",
		"other": "x",
	}
	for k, v := range pairs {
		if err := db.Put([]byte(k), []byte(v)); err != nil {
			t.Fatalf("Put %s: %v", k, err)
		}
	}
	var keys []string
	err := db.IteratePrefix([]byte("acc/"), func(key, value []byte) error {
		keys = append(keys, string(key))
		return nil
	})
	if err != nil {
		t.Fatalf("IteratePrefix: %v", err)
	}
	if len(keys) != 3 {
		t.Fatalf("expected 3 keys, got %v", keys)
	}
	for i, want := range []string{"acc/a", "acc/b", "acc/c"} {
		if keys[i] != want {
			t.Fatalf("expected ascending order, got %v", keys)
		}
	}
}

func TestMemDBIteratePrefixStopsOnError(t *testing.T) {
	db := NewMemDB()
	defer db.Close()
	for _, k := range []string{"p/1", "p/2", "p/3"} {
		if err := db.Put([]byte(k), []byte("v")); err != nil {
			t.Fatalf("Put: %v", err)
		}
	}
	stop := errors.New("stop")
	visited := 0
	err := db.IteratePrefix([]byte("p/"), func(key, value []byte) error {
		visited++
		return stop
	})
	if !errors.Is(err, stop) {
		t.Fatalf("expected callback error surfaced, got %v", err)
	}
	if visited != 1 {
		t.Fatalf("expected iteration to stop after first key, visited %d", visited)
	}
}
