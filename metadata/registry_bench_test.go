package metadata

import (
	"testing"
)

const (
	smallStructTest = "Small Struct (5 fields)"
	largeStructTest = "Large Struct (20 fields)"
)

// Benchmark structs
type BenchUser struct {
	ID        int64  `db:"id,pk"`
	Name      string `db:"name"`
	Email     string `db:"email"`
	Status    string `db:"status"`
	CreatedAt string `db:"created_at"`
}

type BenchLargeStruct struct {
	Field01 string `db:"field_01"`
	Field02 string `db:"field_02"`
	Field03 string `db:"field_03"`
	Field04 string `db:"field_04"`
	Field05 string `db:"field_05"`
	Field06 string `db:"field_06"`
	Field07 string `db:"field_07"`
	Field08 string `db:"field_08"`
	Field09 string `db:"field_09"`
	Field10 string `db:"field_10"`
	Field11 string `db:"field_11"`
	Field12 string `db:"field_12"`
	Field13 string `db:"field_13"`
	Field14 string `db:"field_14"`
	Field15 string `db:"field_15"`
	Field16 string `db:"field_16"`
	Field17 string `db:"field_17"`
	Field18 string `db:"field_18"`
	Field19 string `db:"field_19"`
	Field20 string `db:"field_20"`
}

// BenchmarkResolverFirstUse benchmarks the one-time parsing cost
func BenchmarkResolverFirstUse(b *testing.B) {
	b.Run(smallStructTest, func(b *testing.B) {
		for b.Loop() {
			r := NewResolver()
			_, _ = r.Entity(TypeOf[BenchUser]())
		}
	})

	b.Run(largeStructTest, func(b *testing.B) {
		for b.Loop() {
			r := NewResolver()
			_, _ = r.Entity(TypeOf[BenchLargeStruct]())
		}
	})
}

// BenchmarkResolverCached benchmarks cached lookups
func BenchmarkResolverCached(b *testing.B) {
	r := NewResolver()
	_, _ = r.Entity(TypeOf[BenchLargeStruct]())

	b.ResetTimer()
	for b.Loop() {
		_, _ = r.Entity(TypeOf[BenchLargeStruct]())
	}
}
