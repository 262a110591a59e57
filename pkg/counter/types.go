package counter

type Counter interface {
	Incr()
	Add(delta int64) int64
	Get() int64
	Set(i int64)
}
