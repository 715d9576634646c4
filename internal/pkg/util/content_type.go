package util

import (
	"io"
	"mime/multipart"
	"net/http"
	"strings"
)

// GetSafeContentType 嗅探文件真实类型，不信任客户端报的 Content-Type
func GetSafeContentType(file multipart.File) (string, error) {
	buf := make([]byte, 512)
	n, err := file.Read(buf)
	if err != nil && err != io.EOF {
		return "", err
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	return http.DetectContentType(buf[:n]), nil
}

// 附件白名单：图片、PDF、常见办公文档与纯文本
var allowedAttachmentPrefixes = []string{
	"image/",
	"application/pdf",
	"application/msword",
	"application/vnd.openxmlformats-officedocument",
	"application/vnd.ms-excel",
	"text/plain",
}

// IsAllowedAttachmentType 判断附件类型是否在白名单内
func IsAllowedAttachmentType(contentType string) bool {
	for _, prefix := range allowedAttachmentPrefixes {
		if strings.HasPrefix(contentType, prefix) {
			return true
		}
	}
	return false
}
