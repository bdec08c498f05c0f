// Package parallel は行単位の処理をCPUコア数に応じて分割実行する
package parallel

import (
	"runtime"
	"sync"
)

// Workers は items 件を処理するときに使うゴルーチン数を返す
func Workers(items int) int {
	if items <= 0 {
		return 0
	}
	n := runtime.GOMAXPROCS(0)
	if n > items {
		n = items
	}
	return n
}

// Chunks は [0, items) を workers 個の連続区間に分割する
// 区間の長さの差は高々1
func Chunks(items, workers int) [][2]int {
	if items <= 0 || workers <= 0 {
		return nil
	}
	if workers > items {
		workers = items
	}
	out := make([][2]int, 0, workers)
	base, rest := items/workers, items%workers
	start := 0
	for i := 0; i < workers; i++ {
		size := base
		if i < rest {
			size++
		}
		out = append(out, [2]int{start, start + size})
		start += size
	}
	return out
}

// Parallelize は区間ごとに fn を並列に呼び出し、全て終わるまで待つ
// fn は互いに重ならない区間を受け取るので、行ごとの書き込みに排他は不要
func Parallelize(items int, fn func(start, end int)) {
	chunks := Chunks(items, Workers(items))
	if len(chunks) == 0 {
		return
	}
	if len(chunks) == 1 {
		fn(chunks[0][0], chunks[0][1])
		return
	}

	var wg sync.WaitGroup
	wg.Add(len(chunks))
	for _, c := range chunks {
		go func(start, end int) {
			defer wg.Done()
			fn(start, end)
		}(c[0], c[1])
	}
	wg.Wait()
}

// ParallelizeWithThreshold は items が threshold 以下なら逐次に、超えれば並列に処理する
// 小さな入力ではゴルーチン起動のコストが処理時間を上回る
func ParallelizeWithThreshold(items int, threshold int, fn func(start, end int)) {
	if items <= 0 {
		return
	}
	if items <= threshold {
		fn(0, items)
		return
	}
	Parallelize(items, fn)
}
