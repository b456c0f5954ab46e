package main

import (
	"fmt"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/randomizedcoder/two-lock-queue/internal/queue"
)

type queueInfo struct {
	name   string
	create func() queue.Queue[int]
}

var benchQueues = []queueInfo{
	{"TwoLock", func() queue.Queue[int] { return queue.New[int]() }},
	{"Mutex", func() queue.Queue[int] { return queue.NewMutex[int]() }},
}

func cmdBench() *cobra.Command {
	var iterations, workers int

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Compare queue throughput",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			benchSequential(iterations)
			benchConcurrent(iterations, workers)
		},
	}

	cmd.Flags().IntVarP(&iterations, "iterations", "n", 10_000_000, "number of iterations")
	cmd.Flags().IntVarP(&workers, "workers", "w", 4, "producer and consumer goroutines for the concurrent run")
	return cmd
}

// benchSequential measures one push plus one pop per iteration on a
// single goroutine, so only the uncontended lock cost shows.
func benchSequential(iterations int) {
	if iterations <= 0 {
		return
	}

	fmt.Printf("Benchmarking push+pop (%d iterations, 1 goroutine)\n", iterations)
	fmt.Println("─────────────────────────────────────────────────")

	results := make(map[string]float64)
	for _, info := range benchQueues {
		q := info.create()
		start := time.Now()
		for i := 0; i < iterations; i++ {
			q.Push(i)
			q.Pop()
		}
		results[info.name] = perOp(time.Since(start), iterations)
	}

	ch := make(chan int, 1024)
	start := time.Now()
	for i := 0; i < iterations; i++ {
		ch <- i
		<-ch
	}
	results["Channel"] = perOp(time.Since(start), iterations)

	fmt.Printf("\nResults (push + pop per iteration):\n")
	for _, name := range []string{"TwoLock", "Mutex", "Channel"} {
		fmt.Printf("  %-8s %8.2f ns/op  %8.2f M ops/sec\n", name+":", results[name], 1000/results[name])
	}
}

// benchConcurrent moves iterations values from workers producers to
// workers consumers. Producers and consumers only meet at the ends of the
// queue, which is where TwoLock should pull ahead.
func benchConcurrent(iterations, workers int) {
	if workers < 1 {
		workers = 1
	}
	per := iterations / workers
	if per == 0 {
		return
	}

	fmt.Printf("\nBenchmarking %d producers → %d consumers (%d values)\n", workers, workers, per*workers)
	fmt.Println("─────────────────────────────────────────────────")

	results := make(map[string]float64)
	for _, info := range benchQueues {
		q := info.create()
		var wg sync.WaitGroup
		start := time.Now()
		for w := 0; w < workers; w++ {
			wg.Add(2)
			go func() {
				defer wg.Done()
				for i := 0; i < per; i++ {
					q.Push(i)
				}
			}()
			go func() {
				defer wg.Done()
				for i := 0; i < per; i++ {
					q.Pop()
				}
			}()
		}
		wg.Wait()
		results[info.name] = perOp(time.Since(start), per*workers)
	}

	fmt.Printf("\nResults (per value moved):\n")
	for _, info := range benchQueues {
		fmt.Printf("  %-8s %8.2f ns/op  %8.2f M ops/sec\n", info.name+":", results[info.name], 1000/results[info.name])
	}
	if results["Mutex"] > results["TwoLock"] {
		fmt.Printf("\n  Speedup:  %.2fx (TwoLock faster)\n", results["Mutex"]/results["TwoLock"])
	} else {
		fmt.Printf("\n  Speedup:  %.2fx (Mutex faster)\n", results["TwoLock"]/results["Mutex"])
	}
}

func perOp(d time.Duration, n int) float64 {
	return float64(d.Nanoseconds()) / float64(n)
}
