package config

import (
	"sync"
)

// Watcher 把配置文件解析为 T 并在文件变化时热更新
// 新配置解析或验证失败时保留旧配置，并通过 onError 报告
type Watcher[T any] struct {
	mgr       Manager
	key       string
	validator *Validator
	onError   func(error)

	mu        sync.RWMutex
	current   *T
	callbacks []func(*T)
}

// NewWatcher 解析 mgr 中 key 下的配置（key 为空表示整个文件）并开始监听
func NewWatcher[T any](mgr Manager, key string, onError func(error)) (*Watcher[T], error) {
	w := &Watcher[T]{
		mgr:       mgr,
		key:       key,
		validator: NewValidator(),
		onError:   onError,
	}

	cfg, err := w.load()
	if err != nil {
		return nil, err
	}
	w.current = cfg

	if err := mgr.Watch(w.reload); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *Watcher[T]) load() (*T, error) {
	var cfg T
	var err error
	if w.key == "" {
		err = w.mgr.Unmarshal(&cfg)
	} else {
		err = w.mgr.UnmarshalKey(w.key, &cfg)
	}
	if err != nil {
		return nil, err
	}
	if err := w.validator.Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (w *Watcher[T]) reload() {
	cfg, err := w.load()
	if err != nil {
		if w.onError != nil {
			w.onError(err)
		}
		return
	}

	w.mu.Lock()
	w.current = cfg
	callbacks := append([]func(*T){}, w.callbacks...)
	w.mu.Unlock()

	for _, cb := range callbacks {
		cb(cfg)
	}
}

// Current 当前配置
func (w *Watcher[T]) Current() *T {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// OnChange 注册配置变化回调
func (w *Watcher[T]) OnChange(callback func(*T)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks = append(w.callbacks, callback)
}
