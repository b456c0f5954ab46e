package harness

// Verify checks what the consumers received against what the producers
// pushed: every Item{p, s} with p < producers and s < items must appear
// exactly once, and each consumer must have seen any one producer's
// values in increasing Seq order.
func Verify(received [][]Item, producers, items int) error {
	seen := make(map[Item]int, producers*items)

	for c, got := range received {
		last := make(map[int]int)
		for _, it := range got {
			if it.Producer < 0 || it.Producer >= producers || it.Seq < 0 || it.Seq >= items {
				return Error.New("consumer %d received unknown value %+v", c, it)
			}
			if prev, ok := last[it.Producer]; ok && it.Seq <= prev {
				return Error.New("consumer %d received producer %d seq %d after seq %d", c, it.Producer, it.Seq, prev)
			}
			last[it.Producer] = it.Seq

			seen[it]++
			if seen[it] > 1 {
				return Error.New("value %+v delivered %d times", it, seen[it])
			}
		}
	}

	if len(seen) != producers*items {
		for p := 0; p < producers; p++ {
			for s := 0; s < items; s++ {
				if seen[Item{p, s}] == 0 {
					return Error.New("value %+v was never delivered (%d of %d received)", Item{p, s}, len(seen), producers*items)
				}
			}
		}
	}
	return nil
}
