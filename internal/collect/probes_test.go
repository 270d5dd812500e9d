package collect

import (
	"strings"
	"testing"
)

func TestProbesOrder(t *testing.T) {
	all := Probes()
	if len(all) != 21 {
		t.Fatalf("expected 21 probes, got %d", len(all))
	}
	if all[0].Name != "PostgreSQL version" {
		t.Errorf("first probe = %q", all[0].Name)
	}
	if all[len(all)-1].Name != "WAL activity" {
		t.Errorf("last probe = %q", all[len(all)-1].Name)
	}

	seen := map[string]bool{}
	for _, p := range all {
		if p.Name == "" || strings.TrimSpace(p.Query) == "" {
			t.Errorf("probe %q has empty name or query", p.Name)
		}
		if seen[p.Name] {
			t.Errorf("duplicate probe name %q", p.Name)
		}
		seen[p.Name] = true
	}
}

func TestProbesReturnsCopy(t *testing.T) {
	a := Probes()
	a[0].Name = "changed"
	if Probes()[0].Name == "changed" {
		t.Error("Probes() must not expose the package table")
	}
}

func TestProbeSQL(t *testing.T) {
	p := Probe{Query: "select pg_sleep(@wait@); select x / @wait@"}
	if got := p.SQL(30); got != "select pg_sleep(30); select x / 30" {
		t.Errorf("SQL(30) = %q", got)
	}
	plain := Probe{Query: "select 1"}
	if plain.SQL(30) != "select 1" {
		t.Error("queries without placeholder must be unchanged")
	}
}

// TestRateProbes verifies only the two rate probes sleep and decode.
func TestRateProbes(t *testing.T) {
	for _, p := range Probes() {
		sleeps := strings.Contains(p.Query, "pg_sleep("+WaitPlaceholder+")")
		if sleeps != (p.Decode != nil) {
			t.Errorf("probe %q: sleeps=%v but decoder set=%v", p.Name, sleeps, p.Decode != nil)
		}
		if !sleeps {
			continue
		}
		sql := p.SQL(60)
		if !strings.Contains(sql, "pg_sleep(60)") {
			t.Errorf("probe %q: window not substituted", p.Name)
		}
		if strings.Count(sql, "\nbegin;") != 2 || strings.Count(sql, "\ncommit;") != 2 {
			t.Errorf("probe %q: each snapshot must run in its own transaction", p.Name)
		}
		if !strings.Contains(sql, "create temp table") {
			t.Errorf("probe %q: snapshots must be session scoped", p.Name)
		}
	}
}

func TestWriteRateKeepsChunks(t *testing.T) {
	if strings.Contains(writeRateSQL, "'_timescaledb_internal'") {
		t.Error("write rates must count hypertable chunks in _timescaledb_internal")
	}
}

func TestUnsupportedExtensionsSQL(t *testing.T) {
	sql := unsupportedExtensionsSQL(SupportedExtensions)
	for _, ext := range SupportedExtensions {
		if !strings.Contains(sql, "'"+ext+"'") {
			t.Errorf("allow-list entry %q missing from query", ext)
		}
	}
	if !strings.Contains(sql, "json_build_object(extname, extversion)") {
		t.Error("query should list name/version pairs")
	}
}

func TestQuoteLiteral(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"plpgsql", `'plpgsql'`},
		{"uuid-ossp", `'uuid-ossp'`},
		{"it's", `'it''s'`},
		{"", `''`},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := quoteLiteral(tt.input); got != tt.expected {
				t.Errorf("quoteLiteral(%q) = %q, expected %q", tt.input, got, tt.expected)
			}
		})
	}
}

func BenchmarkProbeSQL(b *testing.B) {
	p := Probes()[len(probes)-2]
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		p.SQL(60)
	}
}
