// Command simulator publishes synthetic vehicle location pings to the
// telematics broker, for exercising the tracking ingest locally.
package main

import (
	"encoding/json"
	"flag"
	"math/rand"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"

	"github.com/fleetops/fleet-management/internal/tracking"
)

type simVehicle struct {
	registration string
	lat          float64
	lon          float64
}

func main() {
	broker := flag.String("broker", "tcp://localhost:1883", "MQTT broker URL")
	registrations := flag.String("vehicles", "ABC123,DEF456,GHI789", "comma-separated vehicle registrations")
	interval := flag.Duration("interval", 5*time.Second, "time between pings per vehicle")
	flag.Parse()

	log.SetFormatter(&log.JSONFormatter{})

	opts := mqtt.NewClientOptions().
		AddBroker(*broker).
		SetClientID("fleet-simulator").
		SetAutoReconnect(true).
		SetConnectTimeout(10 * time.Second)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		log.WithError(token.Error()).Fatal("failed to connect to broker")
	}
	defer client.Disconnect(250)

	var vehicles []*simVehicle
	for _, reg := range strings.Split(*registrations, ",") {
		reg = strings.TrimSpace(reg)
		if reg == "" {
			continue
		}
		vehicles = append(vehicles, &simVehicle{
			registration: reg,
			lat:          51.5074 + rand.Float64()*0.1,
			lon:          -0.1278 + rand.Float64()*0.1,
		})
	}
	if len(vehicles) == 0 {
		log.Fatal("no vehicle registrations given")
	}

	log.WithFields(log.Fields{
		"broker":   *broker,
		"vehicles": len(vehicles),
		"interval": interval.String(),
	}).Info("simulator started")

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-ticker.C:
			for _, v := range vehicles {
				// random walk of roughly a city block per tick
				v.lat += (rand.Float64() - 0.5) * 0.002
				v.lon += (rand.Float64() - 0.5) * 0.002

				ping := tracking.LocationPing{
					Registration: v.registration,
					Lat:          v.lat,
					Lon:          v.lon,
					Timestamp:    time.Now(),
				}
				payload, err := json.Marshal(ping)
				if err != nil {
					log.WithError(err).Error("marshal ping")
					continue
				}

				topic := "fleet/vehicles/" + v.registration + "/location"
				if token := client.Publish(topic, 1, false, payload); token.Wait() && token.Error() != nil {
					log.WithError(token.Error()).WithField("topic", topic).Warn("publish failed")
				}
			}
		case <-quit:
			log.Info("simulator stopped")
			return
		}
	}
}
