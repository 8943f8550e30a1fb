// Package storage 聚合编排器的全部存储资源：主/备对象存储、文件记录库、KV缓存与消息队列.
//
// Example:
//
// 初始化
//
//	 ctx := context.Background()
//	 mgr, err := storage.Init(ctx)
//
//		if err != nil {
//		    // 处理错误
//		}
//
// 获取存储客户端
//
//	primary := mgr.GetPrimaryStore()
//	dbClient := mgr.GetDBClient()
package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/yeisme/filevault/pkg/configs"
	dbc "github.com/yeisme/filevault/pkg/internal/storage/db"
	kvc "github.com/yeisme/filevault/pkg/internal/storage/kv"
	mqc "github.com/yeisme/filevault/pkg/internal/storage/mq"
	"github.com/yeisme/filevault/pkg/internal/storage/obj"
	nlog "github.com/yeisme/filevault/pkg/log"
)

// Manager 聚合所有存储资源.
type Manager struct {
	Primary   obj.Store
	Secondary obj.Store
	DB        *dbc.Client
	KV        *kvc.Client
	MQ        *mqc.Client
}

var (
	mgr     *Manager
	mgrOnce sync.Once
)

// Init 初始化默认存储，使用全局配置.重复调用只返回已初始化实例.
func Init(ctx context.Context) (*Manager, error) {
	var err error

	mgrOnce.Do(func() {
		cfg := configs.GetConfig()
		m := &Manager{}

		// DB
		dbi, e := dbc.New(ctx)
		if e != nil {
			err = fmt.Errorf("init db: %w", e)
			return
		}

		m.DB = dbi

		// 主对象存储
		primary, e := obj.New(ctx, &cfg.Store.Primary)
		if e != nil {
			err = fmt.Errorf("init primary store: %w", e)
			return
		}

		m.Primary = primary

		// 备对象存储，关闭复制时不建连
		if cfg.Store.SecondarySync {
			secondary, e := obj.New(ctx, &cfg.Store.Secondary)
			if e != nil {
				err = fmt.Errorf("init secondary store: %w", e)
				return
			}

			m.Secondary = secondary
		}

		// KV
		kvi, e := kvc.NewKVClient(ctx)
		if e != nil {
			err = fmt.Errorf("init kv: %w", e)
			return
		}

		m.KV = kvi

		// MQ
		mqi, e := mqc.New(ctx)
		if e != nil {
			err = fmt.Errorf("init mq: %w", e)
			return
		}

		m.MQ = mqi

		mgr = m

		nlog.Logger().Info().Msg("storage manager initialized")
	})

	return mgr, err
}

// GetPrimaryStore 获取主对象存储.
func (m *Manager) GetPrimaryStore() obj.Store {
	return m.Primary
}

// GetSecondaryStore 获取备对象存储，复制停用时返回 nil.
func (m *Manager) GetSecondaryStore() obj.Store {
	return m.Secondary
}

// GetDBClient 获取 DB 客户端.
func (m *Manager) GetDBClient() *dbc.Client {
	return m.DB
}

// GetKVClient 获取 KV 客户端.
func (m *Manager) GetKVClient() *kvc.Client {
	return m.KV
}

// GetMQClient 获取 MQ 客户端.
func (m *Manager) GetMQClient() *mqc.Client {
	return m.MQ
}

// Close 依次释放全部存储资源.
func (m *Manager) Close() error {
	var err error

	if m.MQ != nil {
		if e := m.MQ.Close(); e != nil {
			err = e
		}
	}

	if m.KV != nil {
		if e := m.KV.Close(); e != nil {
			err = e
		}
	}

	if m.Secondary != nil {
		if e := m.Secondary.Close(); e != nil {
			err = e
		}
	}

	if m.Primary != nil {
		if e := m.Primary.Close(); e != nil {
			err = e
		}
	}

	if m.DB != nil {
		if e := m.DB.Close(); e != nil {
			err = e
		}
	}

	return err
}
