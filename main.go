package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"clementus360/activity-agent/bus"
	"clementus360/activity-agent/config"
	"clementus360/activity-agent/coordinator"
	"clementus360/activity-agent/llm"
	"clementus360/activity-agent/storage"
	"clementus360/activity-agent/summarizer"
	"clementus360/activity-agent/supabase"
)

func main() {

	config.LoadEnv()
	config.InitLogger()
	supabase.Init()

	statePath := os.Getenv("AGENT_STATE_FILE")
	if statePath == "" {
		statePath = "agent-state.json"
	}
	local, err := storage.Open(statePath)
	if err != nil {
		config.Logger.Fatal("Failed to open local state:", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	messageBus := bus.New(config.Tracker.BusQueueSize)
	coord := coordinator.New(messageBus, local, supabase.Client)

	done := make(chan struct{})
	go func() {
		coord.Run()
		close(done)
	}()

	ai := llm.NewClient(config.CohereBaseURL, os.Getenv("COHERE_API_KEY"), config.CohereModel)
	scheduler := summarizer.NewScheduler(supabase.Client, ai, config.Tracker.SummarizeEvery)
	go scheduler.Start(ctx)

	config.Logger.Info("Activity agent is running")

	<-ctx.Done()
	messageBus.Close()
	<-done
	config.Logger.Info("Activity agent stopped")
}
