package usecase

import "sync"

// ScratchStore хранит черновики диалогов по chat id. Это не кэш: вне активного
// диалога записи нет.
type ScratchStore struct {
	mu    sync.Mutex
	items map[int64]Scratch
}

func NewScratchStore() *ScratchStore {
	return &ScratchStore{items: make(map[int64]Scratch)}
}

func (s *ScratchStore) Get(chatID int64) Scratch {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items[chatID]
}

// Put сохраняет черновик; неактивный черновик удаляет запись.
func (s *ScratchStore) Put(chatID int64, sc Scratch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !sc.Active() {
		delete(s.items, chatID)
		return
	}
	s.items[chatID] = sc
}

func (s *ScratchStore) Clear(chatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, chatID)
}

// Len — число активных диалогов.
func (s *ScratchStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}
