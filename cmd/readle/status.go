package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/hrygo/readle/internal/profile"
	"github.com/hrygo/readle/plugin/readleapi"
)

type statusReport struct {
	Health *readleapi.HealthResponse `json:"health"`
	RAG    *readleapi.RAGStatus      `json:"rag"`
}

func newStatusCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show chat service health and knowledge base status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := loadProfile(v, true)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if p.Backend == profile.BackendLLM {
				fmt.Fprintf(out, "Backend: direct LLM\nProvider: %s\nModel: %s\nBase URL: %s\n", p.LLMProvider, p.LLMModel, p.LLMBaseURL)
				return nil
			}

			client := readleapi.NewClient(p.APIBaseURL, readleapi.Options{
				Timeout:   time.Duration(p.Timeout) * time.Second,
				RateLimit: p.RateLimit,
			})

			var report statusReport
			g, ctx := errgroup.WithContext(cmd.Context())
			g.Go(func() error {
				h, err := client.Health(ctx)
				report.Health = h
				return err
			})
			g.Go(func() error {
				r, err := client.RAGStatus(ctx)
				report.RAG = r
				return err
			})
			if err := g.Wait(); err != nil {
				return err
			}

			if p.Output == "json" {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}
			printStatus(out, client.BaseURL(), &report)
			return nil
		},
	}
}

func printStatus(w io.Writer, baseURL string, r *statusReport) {
	h, rag := r.Health, r.RAG
	fmt.Fprintf(w, "Chat service: %s\n", baseURL)
	fmt.Fprintf(w, "Status: %s (%s)\n", h.Status, h.Service)
	fmt.Fprintf(w, "Active sessions: %d\n", h.ActiveSessions)
	fmt.Fprintf(w, "Knowledge base: %s\n", onOff(rag.Initialized, "initialized", "not initialized"))
	fmt.Fprintf(w, "Vector store: %s\n", onOff(rag.VectorstoreAvailable, "available", "unavailable"))
	fmt.Fprintf(w, "Relevance threshold: %.2f\n", rag.RelevanceThreshold)
	fmt.Fprintf(w, "Websites: %d\n", len(rag.DefaultWebsites))
	fmt.Fprintf(w, "PDFs: %d of %d in %s\n", len(rag.PDFFilesFound), rag.TotalPDFFiles, rag.PDFFolder)
}

func onOff(b bool, on, off string) string {
	if b {
		return on
	}
	return off
}
