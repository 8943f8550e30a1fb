// Package service 实现文件托管的业务逻辑（摄取、同步、分析、删除等），不处理 HTTP 细节.
package service

import (
	"context"
	"errors"
	"io"
	"sync"

	ctxPkg "github.com/yeisme/filevault/pkg/context"
	"github.com/yeisme/filevault/pkg/configs"
	"github.com/yeisme/filevault/pkg/internal/analyzer"
	"github.com/yeisme/filevault/pkg/internal/model"
	"github.com/yeisme/filevault/pkg/internal/scanner"
	"github.com/yeisme/filevault/pkg/internal/storage/db"
	"github.com/yeisme/filevault/pkg/internal/storage/kv"
	"github.com/yeisme/filevault/pkg/internal/storage/mq"
	"github.com/yeisme/filevault/pkg/internal/storage/obj"
	nlog "github.com/yeisme/filevault/pkg/log"
)

// ErrConflict 同名文件已存在.
var ErrConflict = errors.New("filename already exists")

// ErrNotFound 文件记录不存在.
var ErrNotFound = errors.New("file record not found")

// ErrStoreUnavailable 对象存储不可用.
var ErrStoreUnavailable = errors.New("object store unavailable")

var (
	scannerOnce     sync.Once
	scannerInstance *scanner.Service

	analyzerOnce     sync.Once
	analyzerInstance *analyzer.Service
)

// virusScanner 抽象病毒扫描客户端，测试中可替换.
type virusScanner interface {
	ScanStream(ctx context.Context, r io.Reader) (*scanner.Result, error)
}

// contentAnalyzer 抽象AI分析客户端，测试中可替换.
type contentAnalyzer interface {
	Enabled() bool
	AnalyzeContent(ctx context.Context, filename string, data []byte) (*model.AnalysisResult, error)
}

// FileService 负责文件生命周期业务，依赖从 context 注入的存储客户端.
type FileService struct {
	primary   obj.Store
	secondary obj.Store
	dbClient  *db.Client
	kvClient  *kv.Client
	mqClient  *mq.Client
	scanner   virusScanner
	analyzer  contentAnalyzer
}

// NewFileService 从 context 获取依赖实例.
func NewFileService(c context.Context) *FileService {
	primary := ctxPkg.GetPrimaryStore(c)
	dbc := ctxPkg.GetDBClient(c)
	mqc := ctxPkg.GetMQClient(c)

	// 为了安全起见，应该直接 panic 而不是返回 nil，依赖此服务就不需要再检查
	if primary == nil || dbc == nil || dbc.DB == nil || mqc == nil {
		nlog.Logger().Fatal().Msg("storage clients not initialized")
	}

	return &FileService{
		primary:   primary,
		secondary: ctxPkg.GetSecondaryStore(c),
		dbClient:  dbc,
		kvClient:  ctxPkg.GetKVClient(c),
		mqClient:  mqc,
		scanner:   Scanner(),
		analyzer:  Analyzer(),
	}
}

// Scanner 返回进程级扫描客户端单例.
func Scanner() *scanner.Service {
	scannerOnce.Do(func() {
		scannerInstance = scanner.New(&configs.GetConfig().Scanner)
	})

	return scannerInstance
}

// Analyzer 返回进程级分析客户端单例.
func Analyzer() *analyzer.Service {
	analyzerOnce.Do(func() {
		analyzerInstance = analyzer.New(&configs.GetConfig().AI)
	})

	return analyzerInstance
}
