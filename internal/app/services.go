package app

import (
	"context"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/doorkit/doord/internal/access"
	"github.com/doorkit/doord/internal/config"
	"github.com/doorkit/doord/internal/controller"
	"github.com/doorkit/doord/internal/door"
	"github.com/doorkit/doord/internal/eventbus"
	"github.com/doorkit/doord/internal/hw"
	"github.com/doorkit/doord/internal/hw/sim"
	"github.com/doorkit/doord/internal/lights"
)

// Services is a container for all application services.
// It manages service initialization order and dependencies.
type Services struct {
	cfg *config.Config

	Bus  *eventbus.Bus
	Loop *controller.Loop
}

// hardware bundles the capability implementations of a backend.
type hardware struct {
	reader   hw.CredentialReader
	actuator hw.DoorActuator
	feedback hw.FeedbackDevice
	sensor   hw.LightSensor
	bank     hw.LightBank
}

// NewServices creates all services with proper dependency injection.
// Hardware initialization failures surface here, before the loop starts.
func NewServices(cfg *config.Config) (*Services, error) {
	s := &Services{cfg: cfg}

	s.Bus = eventbus.NewWithConfig(cfg.EventBus.GetWorkers(), cfg.EventBus.GetQueueSize())
	subscribeAuditLog(s.Bus)

	devices, err := buildHardware(cfg)
	if err != nil {
		closeCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		s.Close(closeCtx)
		return nil, err
	}

	clock := hw.NewWallClock()
	authorizer := access.NewController(access.DefaultAuthorized)
	machine := door.New(clock, devices.actuator, devices.feedback, door.Config{
		StepCount:  cfg.Door.StepCount,
		HoldOpen:   cfg.Door.HoldOpen.Duration(),
		GrantPulse: cfg.Door.GrantPulse.Duration(),
		OpenBeep:   cfg.Door.OpenBeep.Duration(),
	})
	automation := lights.New(devices.sensor, devices.bank, cfg.Lights.Threshold)

	s.Loop = controller.New(clock, devices.reader, authorizer, machine, automation, s.Bus)
	return s, nil
}

// Close shuts down the services that own background resources.
func (s *Services) Close(ctx context.Context) {
	if s.Bus != nil {
		s.Bus.Close(ctx)
	}
}

// buildHardware selects the configured backend. Only the simulated
// backend is built in; real boards wire their own hw implementations.
func buildHardware(cfg *config.Config) (*hardware, error) {
	switch cfg.Hardware.Backend {
	case "sim":
		identity, err := hex.DecodeString(cfg.Hardware.Sim.Identity)
		if err != nil {
			return nil, fmt.Errorf("invalid sim identity %q: %w", cfg.Hardware.Sim.Identity, err)
		}
		return &hardware{
			reader: sim.NewReader(
				identity,
				cfg.Hardware.Sim.PresentEvery.Duration(),
				cfg.Hardware.Sim.PresentFor.Duration(),
			),
			actuator: sim.NewActuator(),
			feedback: sim.NewFeedback(),
			sensor:   sim.NewSensor(cfg.Hardware.Sim.LightReading),
			bank:     sim.NewBank(),
		}, nil
	default:
		return nil, fmt.Errorf("unknown hardware backend %q", cfg.Hardware.Backend)
	}
}

// subscribeAuditLog writes every controller event to the structured log.
// This is the only audit surface; nothing is persisted.
func subscribeAuditLog(bus *eventbus.Bus) {
	for _, eventType := range []eventbus.EventType{
		eventbus.EventTypeAccessGranted,
		eventbus.EventTypeAccessDenied,
		eventbus.EventTypeDoorState,
		eventbus.EventTypeLights,
	} {
		bus.Subscribe(eventType, logEvent)
	}
}

func logEvent(e eventbus.Event) {
	log.Info().
		Str("event_id", e.ID).
		Str("event_type", string(e.Type)).
		Time("at", e.At).
		Fields(e.Data).
		Msg("Event")
}
