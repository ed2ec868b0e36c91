package core

// DomainError 是领域层的统一错误类型。
//
// 设计原则：
//   - 所有领域层错误都使用此类型
//   - 提供错误代码（Code）和消息（Message）
//   - 支持错误检查函数（IsXXX）
//
// 传播策略：索引/召回内部错误在各自模块内通过回退链消化，
// 只有 INVALID_REQUEST 与全部召回源枯竭才会抛给调用方。
type DomainError struct {
	Code    string // 错误代码（如 "INDEX_NOT_READY"）
	Message string // 错误消息
	Module  string // 模块名称（如 "index", "recall"）
}

func (e *DomainError) Error() string {
	return e.Message
}

// GetDomainError 获取 DomainError，如果不是则返回 nil
func GetDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	if domainErr, ok := err.(*DomainError); ok {
		return domainErr
	}
	return nil
}

// NewDomainError 创建新的领域错误
func NewDomainError(module, code, message string) *DomainError {
	return &DomainError{
		Module:  module,
		Code:    code,
		Message: message,
	}
}

// 错误代码常量
const (
	ErrorCodeNotFound             = "NOT_FOUND"             // 资源不存在
	ErrorCodeNotSupported         = "NOT_SUPPORTED"         // 操作不支持
	ErrorCodeIndexNotReady        = "INDEX_NOT_READY"       // 索引尚未就绪，走回退路径
	ErrorCodeIndexCorrupt         = "INDEX_CORRUPT"         // 索引损坏（如维度不一致），触发下次访问重建
	ErrorCodeEmbeddingUnavailable = "EMBEDDING_UNAVAILABLE" // 缺少向量，切换召回源
	ErrorCodeCatalogUnavailable   = "CATALOG_UNAVAILABLE"   // 目录存储故障，降级热门
	ErrorCodeInvalidRequest       = "INVALID_REQUEST"       // 请求参数非法，透出给调用方
)

// 模块名称常量
const (
	ModuleStore   = "store"
	ModuleIndex   = "index"
	ModuleRecall  = "recall"
	ModuleRank    = "rank"
	ModuleServing = "serving"
)

func is(err error, code string) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == code
	}
	return false
}

// IsNotFound 检查错误是否为 NOT_FOUND
func IsNotFound(err error) bool { return is(err, ErrorCodeNotFound) }

// IsIndexNotReady 检查错误是否为索引未就绪
func IsIndexNotReady(err error) bool { return is(err, ErrorCodeIndexNotReady) }

// IsIndexCorrupt 检查错误是否为索引损坏
func IsIndexCorrupt(err error) bool { return is(err, ErrorCodeIndexCorrupt) }

// IsEmbeddingUnavailable 检查错误是否为向量缺失
func IsEmbeddingUnavailable(err error) bool { return is(err, ErrorCodeEmbeddingUnavailable) }

// IsCatalogUnavailable 检查错误是否为目录存储故障
func IsCatalogUnavailable(err error) bool { return is(err, ErrorCodeCatalogUnavailable) }

// IsInvalidRequest 检查错误是否为非法请求
func IsInvalidRequest(err error) bool { return is(err, ErrorCodeInvalidRequest) }
