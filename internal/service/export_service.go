package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/TheLakshitha/LayoutIndex-Assessment/internal/repository"
)

// ── 导出模块业务错误 ──

var (
	ErrExportGenerateFail = errors.New("生成 Excel 文件失败")
)

// ExportService 导出业务接口
//
// 设计说明：
//   - 导出全部地点与设备清单为 Excel (.xlsx)
//   - 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response
//   - Sheet "Locations" 每个地点一行，Sheet "Devices" 每台设备一行
type ExportService interface {
	// ExportInventory 导出设备清单
	ExportInventory(ctx context.Context) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, logger: logger}
}

const (
	sheetLocations = "Locations"
	sheetDevices   = "Devices"
)

var (
	locationHeaders = []string{"Location ID", "Name", "Address", "Phone", "Devices", "Created At", "Updated At"}
	deviceHeaders   = []string{"Location ID", "Location Name", "Device ID", "Serial Number", "Type", "Status", "Has Image"}
)

// ═══════════════════════════════════════════════════════════
// ExportInventory 导出设备清单
// ═══════════════════════════════════════════════════════════
//
// 行顺序与列表接口一致（按创建时间倒序），设备保持地点内顺序。
// 图片内容不导出，仅标记是否存在。
//
// 返回值：buf（Excel 内容）, filename（建议文件名）, error

func (s *exportService) ExportInventory(ctx context.Context) (*bytes.Buffer, string, error) {
	locations, err := s.repo.Location.List(ctx)
	if err != nil {
		s.logger.Error("查询地点列表失败", zap.Error(err))
		return nil, "", ErrStorageUnavailable
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetLocations); err != nil {
		return nil, "", s.generateFail(err)
	}
	if _, err := f.NewSheet(sheetDevices); err != nil {
		return nil, "", s.generateFail(err)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	for sheet, headers := range map[string][]string{sheetLocations: locationHeaders, sheetDevices: deviceHeaders} {
		if err := writeRow(f, sheet, 1, toAny(headers)); err != nil {
			return nil, "", s.generateFail(err)
		}
		last := cell(colName(len(headers)-1), 1)
		f.SetCellStyle(sheet, "A1", last, headerStyle)
		f.SetColWidth(sheet, "A", colName(len(headers)-1), 20)
	}

	// 数据行
	locRow, devRow := 2, 2
	for _, loc := range locations {
		err := writeRow(f, sheetLocations, locRow, []interface{}{
			loc.LocationID,
			loc.Name,
			loc.Address,
			loc.Phone,
			len(loc.Devices),
			loc.CreatedAt.UTC().Format(timeLayout),
			loc.UpdatedAt.UTC().Format(timeLayout),
		})
		if err != nil {
			return nil, "", s.generateFail(err)
		}
		locRow++

		for _, d := range loc.Devices {
			hasImage := "no"
			if d.Image != "" {
				hasImage = "yes"
			}
			err := writeRow(f, sheetDevices, devRow, []interface{}{
				loc.LocationID,
				loc.Name,
				d.DeviceID,
				d.SerialNumber,
				string(d.Type),
				string(d.Status),
				hasImage,
			})
			if err != nil {
				return nil, "", s.generateFail(err)
			}
			devRow++
		}
	}

	// 写入 buffer
	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		return nil, "", s.generateFail(err)
	}

	filename := fmt.Sprintf("inventory_%s.xlsx", time.Now().UTC().Format("20060102"))
	return buf, filename, nil
}

func (s *exportService) generateFail(err error) error {
	s.logger.Error("写入 Excel 失败", zap.Error(err))
	return ErrExportGenerateFail
}

// ── 辅助函数 ──

func writeRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	return f.SetSheetRow(sheet, cell("A", row), &values)
}

func toAny(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
