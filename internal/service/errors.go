package service

import "errors"

// Validation and precondition errors. Their text is what the user sees.
var (
	ErrNotLoggedIn      = errors.New("请先登录")
	ErrEmptyKeyword     = errors.New("请输入搜索关键词")
	ErrEmptyCode        = errors.New("请输入授权码")
	ErrEmptyComment     = errors.New("请输入评论内容")
	ErrMissingFields    = errors.New("请填写必填字段")
	ErrFileRequired     = errors.New("请选择表盘文件")
	ErrBadFileType      = errors.New("请选择 .bin或.rpk 文件")
	ErrUnknownDevice    = errors.New("未知设备")
	ErrResourceNotFound = errors.New("表盘不存在")
	ErrInvalidState     = errors.New("登录状态校验失败")
)
