package takeout

import (
	"archive/zip"
	"bytes"
	"io"
	"path"
	"strings"
)

// ExtractArchive 流式读取 ZIP 归档，按完整路径收集 .csv/.json 文件内容
// 目录和其他类型的条目直接跳过，不缓冲
// 归档无法解析时返回空 map 而不是错误：下游把空条目集当作 no_data / error_no_fitbit_root 处理
func ExtractArchive(data []byte) map[string][]byte {
	entries := make(map[string][]byte)

	zipReader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return entries
	}

	for _, f := range zipReader.File {
		if f.FileInfo().IsDir() {
			continue
		}
		ext := strings.ToLower(path.Ext(f.Name))
		if ext != ".csv" && ext != ".json" {
			continue
		}

		rc, err := f.Open()
		if err != nil {
			// 单个条目读取失败不影响其余条目
			continue
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			continue
		}
		entries[f.Name] = content
	}

	return entries
}
