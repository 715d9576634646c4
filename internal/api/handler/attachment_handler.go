package handler

import (
	"Homeroom/internal/api/dto"
	"Homeroom/internal/model"
	"Homeroom/internal/pkg/minio"
	"Homeroom/internal/pkg/response"
	"Homeroom/internal/pkg/util"
	"Homeroom/internal/service"
	log "log/slog"
	"path"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type AttachmentHandler struct{}

func NewAttachmentHandler() *AttachmentHandler {
	return &AttachmentHandler{}
}

// Upload 上传附件，返回可直接回填到消息里的附件描述
func (s *AttachmentHandler) Upload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	reader, err := file.Open()
	if err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}
	defer func() { _ = reader.Close() }()

	contentType, err := util.GetSafeContentType(reader)
	if err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}
	if !util.IsAllowedAttachmentType(contentType) {
		response.Error(c, service.ErrFileNotSupported)
		return
	}

	ext := path.Ext(file.Filename)
	objectName := time.Now().Format("2006/01/02/") + uuid.NewString() + ext

	fileKey, err := minio.UploadFile(c.Request.Context(), objectName, reader, file.Size, contentType)
	if err != nil {
		log.ErrorContext(c.Request.Context(), "MinIO upload failed", "err", err)
		response.Error(c, service.UnExpectedError)
		return
	}

	response.Success(c, &dto.AttachmentUploadDTO{
		Attachment: model.Attachment{
			Name: file.Filename,
			URL:  minio.GetPublicURL(fileKey),
			Type: contentType,
		},
	})
}
