package gen

import "sync"

// appLocks — мьютекс на приложение: два одновременных edit'а одного
// приложения не должны перемешивать записи схемы и разметки.
// Записи считаются по ссылкам и убираются из карты, когда последний
// держатель отпускает замок, иначе карта растёт с каждым приложением.
type appLocks struct {
	mu    sync.Mutex
	locks map[string]*appLock
}

type appLock struct {
	mu   sync.Mutex
	refs int
}

func newAppLocks() *appLocks {
	return &appLocks{locks: make(map[string]*appLock)}
}

// acquire блокирует приложение и возвращает функцию разблокировки.
func (l *appLocks) acquire(appID string) func() {
	l.mu.Lock()
	e, ok := l.locks[appID]
	if !ok {
		e = &appLock{}
		l.locks[appID] = e
	}
	e.refs++
	l.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		l.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(l.locks, appID)
		}
		l.mu.Unlock()
	}
}
