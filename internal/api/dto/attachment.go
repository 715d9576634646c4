package dto

import "Homeroom/internal/model"

// AttachmentUploadDTO 附件上传结果，直接回填到消息的 attachments
type AttachmentUploadDTO struct {
	Attachment model.Attachment `json:"attachment"`
}
