// 按CPU数量限制并发的批量执行
package parallel

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// 元素数少于该值时串行执行
const minParallel = 64

// GoFor 对items中的每个元素并发执行f，全部完成后返回
// 说明：f之间不得共享可写状态
func GoFor[T any](items []T, f func(T)) {
	if len(items) < minParallel {
		for _, item := range items {
			f(item)
		}
		return
	}
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for _, item := range items {
		g.Go(func() error {
			f(item)
			return nil
		})
	}
	_ = g.Wait()
}

// GoMap 并发执行f并按原顺序收集结果
func GoMap[T, R any](items []T, f func(T) R) []R {
	out := make([]R, len(items))
	if len(items) < minParallel {
		for i, item := range items {
			out[i] = f(item)
		}
		return out
	}
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, item := range items {
		g.Go(func() error {
			out[i] = f(item)
			return nil
		})
	}
	_ = g.Wait()
	return out
}
