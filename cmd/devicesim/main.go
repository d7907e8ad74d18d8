// devicesim simulates the LED device end of the bridge: it connects to the
// broker as the microcontroller would, announces presence on the status
// topic with a retained last-will fallback, executes LED commands, and
// publishes telemetry periodically and immediately after each state change.
//
// Useful for exercising the bridge without hardware:
//
//	go run ./cmd/devicesim -broker localhost:1883 -device led-01
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nerrad567/lumen-bridge/internal/infrastructure/logging"
	"github.com/nerrad567/lumen-bridge/internal/infrastructure/mqtt"
)

var (
	broker   = flag.String("broker", "localhost:1883", "MQTT broker address (host:port)")
	username = flag.String("user", "", "MQTT username")
	password = flag.String("pass", "", "MQTT password")
	deviceID = flag.String("device", "led-01", "Device ID (forms the topic namespace)")
	interval = flag.Duration("interval", 5*time.Second, "Telemetry publish interval")
)

// telemetry is the wire shape the device publishes on its data topic.
type telemetry struct {
	LEDState bool   `json:"ledState"`
	Uptime   uint64 `json:"uptime"`
	FreeHeap uint64 `json:"freeHeap"`
	RSSI     int    `json:"rssi"`
}

// device holds the simulated hardware state.
type device struct {
	ledOn   atomic.Bool
	started time.Time
}

// snapshot builds the current telemetry reading. Free heap and RSSI wander
// around plausible ESP8266 values.
func (d *device) snapshot() telemetry {
	return telemetry{
		LEDState: d.ledOn.Load(),
		Uptime:   uint64(time.Since(d.started).Seconds()),
		FreeHeap: 28000 + uint64(rand.Intn(6000)),
		RSSI:     -45 - rand.Intn(30),
	}
}

// execute applies a command string the way the firmware would: known
// tokens switch the LED, anything else is logged and ignored.
func (d *device) execute(command string) (changed bool, known bool) {
	switch strings.TrimSpace(command) {
	case "LED_ON":
		return !d.ledOn.Swap(true), true
	case "LED_OFF":
		return d.ledOn.Swap(false), true
	default:
		return false, false
	}
}

func main() {
	flag.Parse()

	log := logging.Default()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, log); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, log *logging.Logger) error {
	topics := mqtt.TopicsFor(*deviceID)
	dev := &device{started: time.Now()}

	publishTelemetry := make(chan struct{}, 1)
	requestTelemetry := func() {
		select {
		case publishTelemetry <- struct{}{}:
		default:
		}
	}

	opts := pahomqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s", *broker))
	opts.SetClientID(fmt.Sprintf("%s-sim", *deviceID))
	opts.SetUsername(*username)
	opts.SetPassword(*password)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetAutoReconnect(true)
	opts.SetConnectTimeout(10 * time.Second)

	// The broker publishes this on our behalf if the session dies without
	// a clean disconnect, so watchers see the device drop off.
	opts.SetWill(topics.Status, "offline", 1, true)

	opts.OnConnect = func(client pahomqtt.Client) {
		log.Info("connected to broker", "broker", *broker)

		// Announce presence, retained so late subscribers see it.
		client.Publish(topics.Status, 1, true, "online")

		// Re-subscribe on every (re)connect; the broker may have dropped
		// session state while we were away.
		token := client.Subscribe(topics.Command, 1, func(_ pahomqtt.Client, msg pahomqtt.Message) {
			command := string(msg.Payload())
			changed, known := dev.execute(command)
			if !known {
				log.Warn("ignoring unknown command", "command", command)
				return
			}
			log.Info("command executed", "command", command, "led_on", dev.ledOn.Load())
			if changed {
				requestTelemetry()
			}
		})
		if token.Wait() && token.Error() != nil {
			log.Error("command subscription failed", "error", token.Error())
		}
	}
	opts.OnConnectionLost = func(_ pahomqtt.Client, err error) {
		log.Warn("broker connection lost", "error", err)
	}

	client := pahomqtt.NewClient(opts)

	// Retry the initial connection until it succeeds or we are told to
	// stop; a headless device has nothing better to do.
	for {
		token := client.Connect()
		token.Wait()
		if token.Error() == nil {
			break
		}
		log.Warn("broker connection failed, retrying", "error", token.Error())
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(5 * time.Second):
		}
	}

	log.Info("device simulator running",
		"device_id", *deviceID,
		"data_topic", topics.Data,
		"command_topic", topics.Command,
		"interval", interval.String(),
	)

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	publish := func() {
		payload, err := json.Marshal(dev.snapshot())
		if err != nil {
			log.Error("marshalling telemetry", "error", err)
			return
		}
		token := client.Publish(topics.Data, 1, false, payload)
		if token.WaitTimeout(5*time.Second) && token.Error() != nil {
			log.Warn("telemetry publish failed", "error", token.Error())
		}
	}

	// First reading straight away so the bridge cache warms immediately.
	publish()

	for {
		select {
		case <-ctx.Done():
			log.Info("shutting down")
			// Clean disconnect suppresses the last-will, so publish the
			// offline status explicitly.
			client.Publish(topics.Status, 1, true, "offline").WaitTimeout(2 * time.Second)
			client.Disconnect(250)
			return nil
		case <-ticker.C:
			publish()
		case <-publishTelemetry:
			publish()
		}
	}
}
