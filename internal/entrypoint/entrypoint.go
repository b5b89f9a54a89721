// Package entrypoint wires one node's five sub-devices together and runs
// them until shutdown: a handful of goroutines fanned out, a wait on
// ctx.Done(), then a join of the tasks whose errors are logged rather than
// returned, modeled on client/doublezerod/internal/runtime.Run,
// restructured around a bounded worker pool (github.com/alitto/pond/v2)
// for the sub-device goroutines themselves.
package entrypoint

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/pentaring/meshcore/internal/barrier"
	"github.com/pentaring/meshcore/internal/clock"
	"github.com/pentaring/meshcore/internal/config"
	"github.com/pentaring/meshcore/internal/device"
	"github.com/pentaring/meshcore/internal/iface"
	"github.com/pentaring/meshcore/internal/ipaddr"
	"github.com/pentaring/meshcore/internal/observer"
	"github.com/pentaring/meshcore/internal/orientation"
	"github.com/pentaring/meshcore/internal/qemu"
	"github.com/pentaring/meshcore/internal/routingcore"
	"github.com/pentaring/meshcore/internal/simclient"
	"github.com/pentaring/meshcore/internal/syncring"
)

// maxConcurrentDevices bounds the worker pool: one node never runs more
// than its five sub-devices at once.
const maxConcurrentDevices = 5

// simControllerCheckTimeout bounds how long the startup reachability
// check retries before declaring the controller unreachable.
const simControllerCheckTimeout = 15 * time.Second

// devicesInConnectOrder is the default forwarder linearization: each
// forwarder's WLAN connect gated behind the previous one's first peer
// connection.
var devicesInConnectOrder = []orientation.Orientation{
	orientation.North, orientation.East, orientation.South, orientation.West,
}

// Run wires and runs one node's sub-devices until ctx is cancelled.
func Run(ctx context.Context, cfg config.Config, reg *prometheus.Registry) error {
	sim := simclient.New(cfg.PysimURL)
	if err := sim.CheckReachable(ctx, simControllerCheckTimeout); err != nil {
		return fmt.Errorf("entrypoint: %w", err)
	}

	cache, err := observer.NewCache()
	if err != nil {
		return fmt.Errorf("entrypoint: %w", err)
	}
	obsServer := observer.NewServer(cache,
		observer.WithAddr(cfg.ObserverAddr),
		observer.WithBaseContext(ctx),
		observer.WithMetricsRegistry(reg),
	)
	obsServer.NoteNode(cfg.NodeID)

	connectOrder := devicesInConnectOrder
	if topo, err := config.LoadTopology(cfg.AssetsDir); err != nil {
		slog.Warn("entrypoint: failed to load topology override, using default connect order", "err", err)
	} else if topo != nil {
		if resolved, err := topo.Orientations(); err != nil {
			slog.Warn("entrypoint: invalid topology connect_order, using default", "err", err)
		} else if len(resolved) > 0 {
			connectOrder = resolved
		}
	}
	order := barrier.New(connectOrder)
	clk := clock.Real{}

	pool := pond.NewPool(maxConcurrentDevices)
	var tasks []pond.Task

	for _, o := range orientation.All() {
		o := o
		tasks = append(tasks, pool.SubmitErr(func() error {
			return runDevice(ctx, cfg, o, sim, cache, order, clk, reg)
		}))
	}

	go func() {
		if err := obsServer.ListenAndServe(); err != nil {
			slog.Error("entrypoint: observer http server stopped", "err", err)
		}
	}()

	<-ctx.Done()
	slog.Info("entrypoint: shutdown requested, draining sub-devices")

	for _, t := range tasks {
		if err := t.Wait(); err != nil {
			slog.Error("entrypoint: sub-device exited with error", "err", err)
		}
	}
	pool.StopAndWait()
	_ = obsServer.Close()
	return nil
}

// runDevice builds and runs one sub-device's full stack: routing core,
// sync core, transports, and the device event loop.
func runDevice(ctx context.Context, cfg config.Config, o orientation.Orientation, sim *simclient.Client, cache *observer.Cache, order *barrier.ConnectOrder, clk clock.Clock, reg *prometheus.Registry) error {
	obs := observer.New(cfg.NodeID, o.Name(), clk, cache)

	spi, err := iface.NewSPI(o.Slot())
	if err != nil {
		return fmt.Errorf("entrypoint: new spi for %s: %w", o, err)
	}

	wlan, err := newWLAN(cfg, o, sim)
	if err != nil {
		return fmt.Errorf("entrypoint: new wlan for %s: %w", o, err)
	}

	dev := device.New(o, nil, nil, wlan, spi, "spi")
	dev.Observer = obs
	for _, c := range dev.Metrics.Collectors() {
		_ = reg.Register(c)
	}

	dev.RoutingCore = newRoutingCore(cfg, o, clk, dev)
	dev.SyncCore = newSyncCore(o, dev)

	if wlan != nil && o != orientation.Center {
		order.Await(o)
		if err := wlan.Connect(ctx); err != nil {
			return fmt.Errorf("entrypoint: wlan connect for %s: %w", o, err)
		}
		if ip, ok := wlan.IP(); ok {
			dev.NotifyPeerConnected(ip, ipaddr.MaskFromPrefixLen(32))
		}
		order.Release(o)
	}

	return dev.Run(ctx)
}

// newWLAN builds the WLAN transport for every orientation, including
// center: a forwarder's WLAN faces a wireless peer and goes through the
// station-connect handshake, while center's faces the user LAN and is only
// ever switched into AP mode by HomeCore's provisioning step — it never
// calls Connect.
func newWLAN(cfg config.Config, o orientation.Orientation, sim *simclient.Client) (iface.WLAN, error) {
	if cfg.QEMU {
		return qemu.NewWLAN(fmt.Sprintf("dz%d", o.Slot()))
	}
	link := simclient.NewLink(sim, cfg.NodeID, o.Name())
	return iface.NewSimWLAN(link, 0), nil
}

func newRoutingCore(cfg config.Config, o orientation.Orientation, clk clock.Clock, out routingcore.Output) routingcore.Core {
	if o == orientation.Center {
		if cfg.Root {
			return routingcore.NewRootCore(out, clk)
		}
		return routingcore.NewHomeCore(out)
	}
	if cfg.Root {
		return routingcore.NewRootForwarderCore(o, out)
	}
	return routingcore.NewForwarderCore(o, out)
}

func newSyncCore(o orientation.Orientation, out syncring.Output) device.SyncCore {
	if o == orientation.Center {
		return syncring.NewCenterSync(out)
	}
	return syncring.NewForwarderSync(out, o.Slot())
}
