// Package combined provides interaction benchmarks that drive the queues
// from several goroutines at once, together with the retry and progress
// helpers the harness wraps around them.
//
// The two-lock design only pays off when producers and consumers run
// concurrently on a backlogged queue, so these benchmarks are the ones
// that tell TwoLock and Mutex apart. Channels and go-lock-free-ring's
// sharded MPSC ring are included as reference points.
package combined
