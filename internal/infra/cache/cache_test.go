package cache_test

import (
	"testing"
	"time"

	"github.com/gestorcontas/contas-desk-go/internal/infra/cache"
)

func TestCache_RoundTrip(t *testing.T) {
	c := cache.New[string](time.Minute)

	c.Set("30130-010", "Av. Afonso Pena")
	got, ok := c.Get("30130-010")
	if !ok || got != "Av. Afonso Pena" {
		t.Fatalf("Get = %q, %v", got, ok)
	}

	if _, ok := c.Get("01310-100"); ok {
		t.Fatal("unknown key must miss")
	}
}

func TestCache_ExpiredEntriesMiss(t *testing.T) {
	c := cache.New[int](20 * time.Millisecond)

	c.Set("k", 42)
	time.Sleep(40 * time.Millisecond)

	if _, ok := c.Get("k"); ok {
		t.Fatal("expired entry must miss")
	}
}

func TestCache_Delete(t *testing.T) {
	c := cache.New[int](time.Minute)

	c.Set("k", 1)
	c.Delete("k")
	if _, ok := c.Get("k"); ok {
		t.Fatal("deleted entry must miss")
	}
}
