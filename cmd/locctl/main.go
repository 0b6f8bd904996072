package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/TheLakshitha/LayoutIndex-Assessment/config"
	"github.com/TheLakshitha/LayoutIndex-Assessment/internal/client"
	"github.com/TheLakshitha/LayoutIndex-Assessment/internal/draft"
	"github.com/TheLakshitha/LayoutIndex-Assessment/internal/dto"
	applogger "github.com/TheLakshitha/LayoutIndex-Assessment/pkg/logger"
)

const usage = `用法: locctl [-server URL] [-timeout 10s] [-v] <命令> [参数]

命令:
  list                         列出全部地点
  get <id>                     查询地点
  create -name N -address A -phone P [-device SERIAL:TYPE[:STATUS[:IMAGE]]]...
  patch <id> [-name N] [-address A] [-phone P] [-add SERIAL:TYPE[:STATUS[:IMAGE]]] [-remove DEVICE_ID]
  delete <id>                  删除地点
  export [-o FILE]             导出库存报表
`

func main() {
	server := flag.String("server", "http://localhost:8080", "服务地址")
	timeout := flag.Duration("timeout", 10*time.Second, "请求超时")
	verbose := flag.Bool("v", false, "输出调试日志")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	level := "warn"
	if *verbose {
		level = "debug"
	}
	logger, err := applogger.NewLogger(&config.LogConfig{Level: level, Format: "console"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	c := client.New(*server, *timeout, logger)
	if err := run(context.Background(), c, args[0], args[1:]); err != nil {
		logger.Debug("命令执行失败", zap.String("command", args[0]), zap.Error(err))
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, c *client.LocationClient, cmd string, args []string) error {
	switch cmd {
	case "list":
		list, err := c.List(ctx)
		if err != nil {
			return err
		}
		return printJSON(list)

	case "get":
		id, err := requireID(args)
		if err != nil {
			return err
		}
		loc, err := c.Get(ctx, id)
		if err != nil {
			return err
		}
		return printJSON(loc)

	case "create":
		return runCreate(ctx, c, args)

	case "patch":
		return runPatch(ctx, c, args)

	case "delete":
		id, err := requireID(args)
		if err != nil {
			return err
		}
		loc, err := c.Delete(ctx, id)
		if err != nil {
			return err
		}
		return printJSON(loc)

	case "export":
		return runExport(ctx, c, args)

	default:
		return fmt.Errorf("未知命令 %q", cmd)
	}
}

// ── create ──

func runCreate(ctx context.Context, c *client.LocationClient, args []string) error {
	fs := flag.NewFlagSet("create", flag.ContinueOnError)
	name := fs.String("name", "", "名称")
	address := fs.String("address", "", "地址")
	phone := fs.String("phone", "", "电话")
	var devices deviceList
	fs.Var(&devices, "device", "设备 SERIAL:TYPE[:STATUS[:IMAGE]]，可重复")
	if err := fs.Parse(args); err != nil {
		return err
	}

	d := draft.New()
	if err := d.SetName(*name); err != nil {
		return err
	}
	if err := d.SetAddress(*address); err != nil {
		return fmt.Errorf("address: %w (%s)", err, d.Warning())
	}
	if err := d.SetPhone(*phone); err != nil {
		return fmt.Errorf("phone: %w (%s)", err, d.Warning())
	}
	for _, dev := range devices {
		if _, err := d.AddDevice(dev); err != nil {
			return err
		}
	}

	// 提交前先比对已有序列号，服务端仍会再次校验
	existing, err := c.List(ctx)
	if err != nil {
		return err
	}
	if err := d.CheckSerials(serialsOf(existing)); err != nil {
		return err
	}

	req, err := d.Request()
	if err != nil {
		return err
	}
	loc, err := c.Create(ctx, req)
	if err != nil {
		return err
	}
	return printJSON(loc)
}

// ── patch ──

func runPatch(ctx context.Context, c *client.LocationClient, args []string) error {
	if len(args) == 0 || strings.HasPrefix(args[0], "-") {
		return errors.New("缺少地点ID")
	}
	id := args[0]

	fs := flag.NewFlagSet("patch", flag.ContinueOnError)
	name := fs.String("name", "", "名称")
	address := fs.String("address", "", "地址")
	phone := fs.String("phone", "", "电话")
	var add deviceList
	fs.Var(&add, "add", "追加设备 SERIAL:TYPE[:STATUS[:IMAGE]]")
	remove := fs.String("remove", "", "移除的设备ID")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}
	if len(add) > 1 {
		return errors.New("-add 每次只能指定一台设备")
	}

	req := &dto.UpdateLocationRequest{}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "name":
			req.Name = name
		case "address":
			req.Address = address
		case "phone":
			req.Phone = phone
		}
	})
	if len(add) == 1 || *remove != "" {
		req.Devices = &dto.DevicesDirective{}
		if len(add) == 1 {
			req.Devices.Add = &add[0]
		}
		if *remove != "" {
			req.Devices.Remove = remove
		}
	}

	loc, err := c.Patch(ctx, id, req)
	if err != nil {
		return err
	}
	return printJSON(loc)
}

// ── export ──

func runExport(ctx context.Context, c *client.LocationClient, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	out := fs.String("o", "", "输出文件，默认使用服务端给出的文件名")
	if err := fs.Parse(args); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(".", ".inventory-*.xlsx")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	filename, err := c.ExportInventory(ctx, tmp)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return err
	}

	target := *out
	if target == "" {
		target = filepath.Base(filename)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return err
	}
	fmt.Println(target)
	return nil
}

// ── 辅助函数 ──

// deviceList 可重复的设备参数
type deviceList []dto.DeviceFields

func (l *deviceList) String() string {
	parts := make([]string, 0, len(*l))
	for _, d := range *l {
		parts = append(parts, d.SerialNumber+":"+d.Type)
	}
	return strings.Join(parts, ",")
}

func (l *deviceList) Set(value string) error {
	dev, err := parseDevice(value)
	if err != nil {
		return err
	}
	*l = append(*l, dev)
	return nil
}

// parseDevice 解析 SERIAL:TYPE[:STATUS[:IMAGE]]，IMAGE 为本地图片路径
func parseDevice(value string) (dto.DeviceFields, error) {
	parts := strings.SplitN(value, ":", 4)
	if len(parts) < 2 {
		return dto.DeviceFields{}, fmt.Errorf("设备格式应为 SERIAL:TYPE[:STATUS[:IMAGE]]: %q", value)
	}
	dev := dto.DeviceFields{SerialNumber: parts[0], Type: parts[1]}
	if len(parts) > 2 {
		dev.Status = parts[2]
	}
	if len(parts) > 3 && parts[3] != "" {
		image, err := imageDataURL(parts[3])
		if err != nil {
			return dto.DeviceFields{}, err
		}
		dev.Image = image
	}
	return dev, nil
}

// imageDataURL 读取图片并编码为 data URL
func imageDataURL(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("读取设备图片失败: %w", err)
	}
	mediaType := mime.TypeByExtension(filepath.Ext(path))
	if !strings.HasPrefix(mediaType, "image/") {
		return "", fmt.Errorf("不支持的图片类型: %s", path)
	}
	if i := strings.IndexByte(mediaType, ';'); i >= 0 {
		mediaType = mediaType[:i]
	}
	return "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

func serialsOf(list []dto.LocationResponse) []string {
	var out []string
	for _, loc := range list {
		for _, d := range loc.Devices {
			out = append(out, d.SerialNumber)
		}
	}
	return out
}

func requireID(args []string) (string, error) {
	if len(args) != 1 {
		return "", errors.New("需要且仅需要一个地点ID")
	}
	return args[0], nil
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
