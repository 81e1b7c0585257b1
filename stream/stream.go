package stream

import (
	"bufio"
	"context"
	"io"
)

// Filter, Transform and Collect are adapted from:
// https://betterprogramming.pub/writing-a-stream-api-in-go-afbc3c4350e2

// MaxLineSize bounds a single scanned line.
const MaxLineSize = 4 * 1024 * 1024

// Lines streams the non-empty lines of r. The error channel receives at most one
// scanner error and is closed with the line channel.
func Lines(ctx context.Context, r io.Reader) (<-chan []byte, <-chan error) {
	out, errs := make(chan []byte), make(chan error, 1)
	go func() {
		defer close(errs)
		defer close(out)
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64*1024), MaxLineSize)
		for scanner.Scan() {
			b := scanner.Bytes()
			if len(b) == 0 {
				continue
			}
			line := make([]byte, len(b))
			copy(line, b)
			select {
			case <-ctx.Done():
				errs <- ctx.Err()
				return
			case out <- line:
			}
		}
		if err := scanner.Err(); err != nil {
			errs <- err
		}
	}()
	return out, errs
}

func Filter[T any](ctx context.Context, predicate func(T) bool, in <-chan T) <-chan T {
	out := make(chan T)
	go func() {
		defer close(out)
		for element := range in {
			if predicate(element) {
				select {
				case <-ctx.Done():
					return
				case out <- element:
				}
			}
		}
	}()
	return out
}

func Transform[I any, O any](ctx context.Context, transformer func(I) O, in <-chan I) <-chan O {
	out := make(chan O)
	go func() {
		defer close(out)
		for element := range in {
			select {
			case <-ctx.Done():
				return
			case out <- transformer(element):
			}
		}
	}()
	return out
}

func Collect[T any](ctx context.Context, in <-chan T) []T {
	out := make([]T, 0)
	for element := range in {
		select {
		case <-ctx.Done():
			return out
		default:
			out = append(out, element)
		}
	}
	return out
}

// GroupBy partitions in by key, keeping input order within each group.
// The returned key order is the order of first appearance.
func GroupBy[T any, K comparable](in []T, key func(T) K) (map[K][]T, []K) {
	groups := map[K][]T{}
	var order []K
	for _, element := range in {
		k := key(element)
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], element)
	}
	return groups, order
}
