package imagestore

// LoadStatus 读取结果状态
type LoadStatus int

const (
	// StatusNotFound 路径为空或后端没有数据
	StatusNotFound LoadStatus = iota
	// StatusFound 已得到可显示的 URL
	StatusFound
	// StatusReadError 后端读取失败
	StatusReadError
)

func (s LoadStatus) String() string {
	switch s {
	case StatusFound:
		return "found"
	case StatusReadError:
		return "read_error"
	default:
		return "not_found"
	}
}

// LoadResult Load 的返回值，Status 为 StatusReadError 时 Err 非空
type LoadResult struct {
	Status LoadStatus
	URL    string
	Err    error
}

// Found 是否得到了 URL
func (r LoadResult) Found() bool {
	return r.Status == StatusFound
}

// SaveResult 批量保存中单个文件的结果
type SaveResult struct {
	FileName string `json:"file_name"`
	Path     string `json:"path,omitempty"`
	Error    string `json:"error,omitempty"`
	Err      error  `json:"-"`
}
