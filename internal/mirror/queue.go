package mirror

import (
	"context"
	"time"

	"smartshop/internal/domain/model"

	"go.uber.org/zap"
)

// Remote はミラー先（リモートカタログ）との約束。
type Remote interface {
	SaveProduct(ctx context.Context, p model.Product) error
	DeleteProduct(ctx context.Context, id string) error
}

type jobKind int

const (
	saveJob jobKind = iota
	deleteJob
)

type job struct {
	kind      jobKind
	product   model.Product
	productID string
}

// Queue はローカル→リモートの片方向ミラー。
// at-most-onceのベストエフォート：キューが満杯なら捨てる、送信失敗はログだけ残して捨てる。
// 失敗が呼び出し元に返ることはない。
type Queue struct {
	remote  Remote
	jobs    chan job
	timeout time.Duration
	log     *zap.Logger
	done    chan struct{}
}

func NewQueue(remote Remote, size int, timeout time.Duration, log *zap.Logger) *Queue {
	if size <= 0 {
		size = 64
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Queue{
		remote:  remote,
		jobs:    make(chan job, size),
		timeout: timeout,
		log:     log,
		done:    make(chan struct{}),
	}
}

// Start はワーカーを1本起動する。ctxかStopで止まる。
func (q *Queue) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case j := <-q.jobs:
				q.process(ctx, j)
			case <-q.done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (q *Queue) Stop() { close(q.done) }

// EnqueueSave は保存ジョブを積む。ブロックしない。
func (q *Queue) EnqueueSave(p model.Product) {
	q.enqueue(job{kind: saveJob, product: p, productID: p.ID})
}

// EnqueueDelete は削除ジョブを積む。ブロックしない。
func (q *Queue) EnqueueDelete(id string) {
	q.enqueue(job{kind: deleteJob, productID: id})
}

func (q *Queue) enqueue(j job) {
	select {
	case q.jobs <- j:
	default:
		// 満杯なら捨てる
		q.log.Warn("mirror queue full, dropping job",
			zap.String("product_id", j.productID))
	}
}

func (q *Queue) process(ctx context.Context, j job) {
	ctx, cancel := context.WithTimeout(ctx, q.timeout)
	defer cancel()

	var err error
	switch j.kind {
	case saveJob:
		err = q.remote.SaveProduct(ctx, j.product)
	case deleteJob:
		err = q.remote.DeleteProduct(ctx, j.productID)
	}

	if err != nil {
		q.log.Warn("mirror to remote failed",
			zap.String("product_id", j.productID),
			zap.Error(err))
	}
}
