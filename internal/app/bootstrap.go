package app

import (
	"errors"

	"github.com/wushipay/wushipay/internal/config"
	"github.com/wushipay/wushipay/internal/provider"
	"github.com/wushipay/wushipay/internal/worker"
)

// BuildRunner 构建服务运行器。
// 队列启用时跑 asynq worker；未启用时退化为单机巡检服务。
func BuildRunner(cfg *config.Config, mode string) (*Runner, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	container := provider.NewContainer(cfg)

	var services []Service

	if cfg.Queue.Enabled && (mode == ModeAll || mode == ModeWorker) {
		consumer := worker.NewConsumer(container)
		workerService, err := worker.NewService(&cfg.Queue, consumer)
		if err != nil {
			return nil, err
		}
		services = append(services, workerService)
	} else {
		services = append(services, NewSweeperService(container))
	}

	if len(services) == 0 {
		return nil, errors.New("no services initialized (check mode and config)")
	}

	return NewRunner(services...), nil
}

// Run 应用启动入口
func Run(opts Options) error {
	opts = normalizeOptions(opts)
	if opts.Config == nil {
		return errors.New("config is nil")
	}

	runner, err := BuildRunner(opts.Config, opts.Mode)
	if err != nil {
		return err
	}

	opts.Logger.Infow("app_start", "mode", opts.Mode, "queue_enabled", opts.Config.Queue.Enabled)
	return RunWithOptions(runner, opts)
}
