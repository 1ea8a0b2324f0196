package common

import (
	"os"
	"testing"
)

func IsTestEnv() bool {
	return testing.Testing()
}
func IsDevelopment() bool {
	return os.Getenv(EnvKeyGoEnv) == "development"
}

func IsProduction() bool {
	return os.Getenv(EnvKeyGoEnv) == "production"
}

func Mapper[T any, R any](items []T, mapFn func(T) R) []R {
	mapped := make([]R, len(items))
	for i := range len(items) {
		mapped[i] = mapFn(items[i])
	}
	return mapped
}

func Reducer[T any, R any](items []T, reduceFn func(R, T) R, initAcc R) R {
	finalAcc := initAcc
	for i := range len(items) {
		finalAcc = reduceFn(finalAcc, items[i])
	}
	return finalAcc
}

// Distinct returns the number of distinct keys produced by keyFn over items.
func Distinct[T any, K comparable](items []T, keyFn func(T) K) int {
	seen := Reducer(items, func(m map[K]struct{}, item T) map[K]struct{} {
		m[keyFn(item)] = struct{}{}
		return m
	}, map[K]struct{}{})
	return len(seen)
}

// EnvOr returns the value of key, or fallback when unset or blank.
func EnvOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && len(v) > 0 {
		return v
	}
	return fallback
}
