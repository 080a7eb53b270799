//-------------------------------------------------------------------------
//
// Global Retail ETL
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package datagen

import (
	"regexp"
	"strings"
	"testing"
	"time"
)

func TestNewFaker(t *testing.T) {
	f := NewFaker()
	if f == nil {
		t.Fatal("NewFaker returned nil")
	}
	if f.faker == nil {
		t.Fatal("faker field is nil")
	}
}

func TestNewFakerWithSeed(t *testing.T) {
	seed := uint64(12345)
	f1 := NewFakerWithSeed(seed)
	f2 := NewFakerWithSeed(seed)

	// Same seed should produce same sequence
	for i := 0; i < 10; i++ {
		v1 := f1.Int(0, 1000)
		v2 := f2.Int(0, 1000)
		if v1 != v2 {
			t.Errorf("Same seed produced different values: %d != %d", v1, v2)
		}
	}
}

func TestFakerName(t *testing.T) {
	f := NewFaker()
	for i := 0; i < 20; i++ {
		name := f.Name()
		if len(strings.Fields(name)) < 2 {
			t.Errorf("Expected first and last name, got: %q", name)
		}
	}
}

func TestFakerPhone(t *testing.T) {
	f := NewFaker()
	re := regexp.MustCompile(`^\(\d{2}\) 9\d{4}-\d{4}$`)
	for i := 0; i < 20; i++ {
		if phone := f.Phone(); !re.MatchString(phone) {
			t.Errorf("Unexpected phone format: %q", phone)
		}
	}
}

func TestFakerDate(t *testing.T) {
	f := NewFaker()
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2020, 12, 31, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 50; i++ {
		d := f.Date(start, end)
		if d.Before(start) || d.After(end) {
			t.Errorf("Date %v outside range", d)
		}
	}
}

func TestFakerInt(t *testing.T) {
	f := NewFaker()
	for i := 0; i < 100; i++ {
		v := f.Int(10, 20)
		if v < 10 || v > 20 {
			t.Errorf("Int out of range: %d", v)
		}
	}
}

func TestFakerChance(t *testing.T) {
	f := NewFakerWithSeed(7)
	for i := 0; i < 100; i++ {
		if f.Chance(0) {
			t.Fatal("Chance(0) returned true")
		}
	}

	hits := 0
	for i := 0; i < 1000; i++ {
		if f.Chance(0.5) {
			hits++
		}
	}
	if hits < 350 || hits > 650 {
		t.Errorf("Chance(0.5) distribution unexpected: %d/1000", hits)
	}
}

func TestFakerDirty(t *testing.T) {
	f := NewFakerWithSeed(42)
	if got := f.Dirty("São Paulo", 0); got != "São Paulo" {
		t.Errorf("Expected untouched value, got %q", got)
	}

	for i := 0; i < 50; i++ {
		got := f.Dirty("São Paulo", 1)
		if strings.Join(strings.Fields(strings.ToLower(got)), " ") != "são paulo" {
			t.Errorf("Dirty changed more than case and spacing: %q", got)
		}
	}
}

func TestChoose(t *testing.T) {
	f := NewFaker()
	items := []string{"a", "b", "c", "d", "e"}

	for i := 0; i < 100; i++ {
		chosen := Choose(f, items)
		found := false
		for _, item := range items {
			if item == chosen {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("Choose returned item not in slice: %s", chosen)
		}
	}
}

func TestChooseEmpty(t *testing.T) {
	f := NewFaker()
	var items []string

	chosen := Choose(f, items)
	if chosen != "" {
		t.Errorf("Choose on empty slice should return zero value, got: %s", chosen)
	}
}

func TestChooseWeighted(t *testing.T) {
	f := NewFaker()
	items := []string{"a", "b", "c"}
	weights := []int{1, 2, 7} // c should be chosen ~70% of the time

	counts := make(map[string]int)
	iterations := 1000

	for i := 0; i < iterations; i++ {
		chosen := ChooseWeighted(f, items, weights)
		counts[chosen]++
	}

	// c should be most common
	if counts["c"] < counts["a"] || counts["c"] < counts["b"] {
		t.Errorf("Weighted choice distribution unexpected: %v", counts)
	}
}

func TestChooseWeightedEmpty(t *testing.T) {
	f := NewFaker()
	var items []string
	var weights []int

	chosen := ChooseWeighted(f, items, weights)
	if chosen != "" {
		t.Errorf("ChooseWeighted on empty slices should return zero value, got: %s", chosen)
	}
}

func TestTruncate(t *testing.T) {
	// Test truncation
	s1 := Truncate("hello world", 5)
	if s1 != "hello" {
		t.Errorf("Truncate should truncate to 5, got: %s", s1)
	}

	// Test no truncation needed
	s2 := Truncate("hi", 10)
	if s2 != "hi" {
		t.Errorf("Truncate should not modify shorter string, got: %s", s2)
	}

	// Multi-byte runes are not split
	s3 := Truncate("Açaí e pão", 4)
	if s3 != "Açaí" {
		t.Errorf("Truncate should count runes, got: %s", s3)
	}
}

// Benchmarks
func BenchmarkFakerInt(b *testing.B) {
	f := NewFaker()
	for i := 0; i < b.N; i++ {
		f.Int(0, 1000)
	}
}

func BenchmarkChooseWeighted(b *testing.B) {
	f := NewFaker()
	items := []string{"a", "b", "c", "d", "e"}
	weights := []int{1, 2, 3, 4, 5}
	for i := 0; i < b.N; i++ {
		ChooseWeighted(f, items, weights)
	}
}
