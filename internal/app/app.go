package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"enbw-hass/internal/bus"
	"enbw-hass/internal/config"
	"enbw-hass/internal/httpapi"
	"enbw-hass/internal/station"
	"enbw-hass/internal/transmission"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Run wires the poll loop, the MQTT transmitter and the optional status
// server together and blocks until ctx is cancelled.
func Run(
	parentCtx context.Context,
	cfg *config.Config,
	poller *station.Poller,
	mqttTx *transmission.MQTTTransmitter,
	statusSrv *httpapi.Server,
	logger *logrus.Logger,
) {
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	messageBus := bus.New()
	grp, ctx := errgroup.WithContext(ctx)

	// Collector -----------------------------------------------------------
	// Ticks faster than the refresh interval; the poller's own throttle
	// decides when a network call actually happens.
	grp.Go(func() error {
		ticker := time.NewTicker(config.PollTick)
		defer ticker.Stop()

		// Prime immediately so entities exist before the first tick.
		refresh(ctx, poller, messageBus)

		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				refresh(ctx, poller, messageBus)
			}
		}
	})

	// MQTT transmitter -----------------------------------------------------
	if mqttTx != nil {
		sub := messageBus.Subscribe()
		device := transmission.DeviceInfo{
			Name:     poller.Name(),
			UniqueID: poller.UniqueID(),
		}
		grp.Go(func() error {
			for {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case snap, ok := <-sub:
					if !ok {
						return nil
					}
					device.StationID = snap.StationID
					if err := mqttTx.Transmit(device, poller.EntityStates()); err != nil {
						logger.WithError(err).Warn("MQTT transmit failed")
					}
				}
			}
		})
	}

	// Status server --------------------------------------------------------
	if statusSrv != nil && cfg.HTTPListen != "" {
		srv := &http.Server{
			Addr:    cfg.HTTPListen,
			Handler: statusSrv.Routes(),
		}
		grp.Go(func() error {
			logger.WithField("addr", cfg.HTTPListen).Info("Status server listening")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		grp.Go(func() error {
			<-ctx.Done()
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			_ = srv.Shutdown(shutdownCtx)
			return ctx.Err()
		})
	}

	if err := grp.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.WithError(err).Warn("app: background group exited")
	}
}

// refresh runs one poller refresh and fans the snapshot out when it changed.
func refresh(ctx context.Context, poller *station.Poller, messageBus *bus.Bus) {
	if !poller.Refresh(ctx) {
		return
	}
	if snap := poller.Snapshot(); snap != nil {
		messageBus.Publish(snap)
	}
}
