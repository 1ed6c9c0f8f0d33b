package watch

import "sync"

// Hub はストレージの変更をトピック単位で購読者に知らせる。
// 通知は「変わった」という合図だけで、中身は購読側が読み直す。
// 合図はバッファ1で合流させる（連続変更は1回分にまとまる）。
type Hub struct {
	mu     sync.Mutex
	subs   map[string]map[int]chan struct{}
	nextID int
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[int]chan struct{})}
}

// Subscribe はトピックの購読を開始する。
// 返すcancelで購読を終了する（cancel後のchは閉じられる）。
func (h *Hub) Subscribe(topic string) (<-chan struct{}, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.subs[topic] == nil {
		h.subs[topic] = make(map[int]chan struct{})
	}

	id := h.nextID
	h.nextID++

	ch := make(chan struct{}, 1)
	h.subs[topic][id] = ch

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()

		if subs, ok := h.subs[topic]; ok {
			if c, ok := subs[id]; ok {
				delete(subs, id)
				close(c)
			}
			if len(subs) == 0 {
				delete(h.subs, topic)
			}
		}
	}

	return ch, cancel
}

// Notify はトピックの全購読者に合図を送る。ブロックしない。
func (h *Hub) Notify(topic string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, ch := range h.subs[topic] {
		select {
		case ch <- struct{}{}:
		default:
			// 既に合図が溜まっていれば何もしない
		}
	}
}
