package buffer

// DropFunc is called with the number of items dropped so far whenever the
// hard limit forces the oldest item out.
type DropFunc func(dropped int)

// Unbounded creates a channel buffer that grows as needed.
// It returns a write-only channel to feed data in, and a read-only channel to read data out.
//
// initialCap: The starting size of the backing slice.
// hardLimit: The maximum number of items to buffer before dropping the oldest.
// onDrop: optional, called from the buffer goroutine on each drop.
//
// Usage:
//
//	in, out := buffer.Unbounded[event.Event](256, 50000, nil)
//	in <- ev
//	ev := <-out
func Unbounded[T any](initialCap, hardLimit int, onDrop DropFunc) (chan<- T, <-chan T) {
	in := make(chan T, 10)
	out := make(chan T, 10)

	if hardLimit <= 0 {
		hardLimit = 1
	}

	go func() {
		defer close(out)

		queue := make([]T, 0, initialCap)
		dropped := 0

		for {
			var next T
			var downstream chan T

			// Enable the 'out' case only if we have data to send.
			if len(queue) > 0 {
				next = queue[0]
				downstream = out
			}

			select {
			case val, ok := <-in:
				if !ok {
					// Flush remaining queue then exit.
					for _, item := range queue {
						out <- item
					}
					return
				}

				// A stalled consumer must not grow memory without bound. Losing
				// the oldest shell output is the least destructive recovery.
				if len(queue) >= hardLimit {
					var zero T
					queue[0] = zero
					queue = queue[1:]
					dropped++
					if onDrop != nil {
						onDrop(dropped)
					}
				}

				queue = append(queue, val)

			case downstream <- next:
				var zero T
				queue[0] = zero
				queue = queue[1:]
			}
		}
	}()

	return in, out
}
