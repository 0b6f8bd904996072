package dto

// ── 地点模块 DTO ──

// DeviceFields 设备字段（新建地点与追加设备共用）
type DeviceFields struct {
	SerialNumber string `json:"serialNumber"`
	Type         string `json:"type"`
	Image        string `json:"image,omitempty"`
	Status       string `json:"status,omitempty"` // 为空时默认 active
}

// CreateLocationRequest 创建地点请求
type CreateLocationRequest struct {
	Name    string         `json:"name"`
	Address string         `json:"address"`
	Phone   string         `json:"phone"`
	Devices []DeviceFields `json:"devices"`
}

// DevicesDirective 设备结构性变更指令，先 add 后 remove
type DevicesDirective struct {
	Add    *DeviceFields `json:"add,omitempty"`
	Remove *string       `json:"remove,omitempty"` // 设备ID，不匹配时为空操作
}

// UpdateLocationRequest 局部更新请求（封闭结构，未知字段在入口处拒绝）
type UpdateLocationRequest struct {
	Devices *DevicesDirective `json:"devices,omitempty"`
	Name    *string           `json:"name,omitempty"`
	Address *string           `json:"address,omitempty"`
	Phone   *string           `json:"phone,omitempty"`
}

// HasScalarFields 是否包含标量字段修改
func (r *UpdateLocationRequest) HasScalarFields() bool {
	return r.Name != nil || r.Address != nil || r.Phone != nil
}

// DeviceResponse 设备信息响应
type DeviceResponse struct {
	ID           string `json:"id"`
	SerialNumber string `json:"serialNumber"`
	Type         string `json:"type"`
	Image        string `json:"image,omitempty"`
	Status       string `json:"status"`
}

// LocationResponse 地点聚合响应
type LocationResponse struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	Address   string           `json:"address"`
	Phone     string           `json:"phone"`
	Devices   []DeviceResponse `json:"devices"`
	Version   int              `json:"version"`
	CreatedAt string           `json:"createdAt"`
	UpdatedAt string           `json:"updatedAt"`
}

// ErrorDetails 失败响应的结构化详情
type ErrorDetails struct {
	Kind      string `json:"kind"`
	Field     string `json:"field,omitempty"`
	Value     string `json:"value,omitempty"`
	Reason    string `json:"reason,omitempty"`
	Retryable bool   `json:"retryable"`
}
