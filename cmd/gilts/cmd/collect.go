package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"benritz/gilts/internal/collect"
	"benritz/gilts/internal/types"
)

var (
	collectProfile string
	collectDate    string
)

var collectCmd = &cobra.Command{
	Use:   "collect <destination>",
	Short: "Collect the current DMO gilt reference data and archive it as Parquet",
	Long: `collect fetches the Debt Management Office's published gilt
reference data for a settlement date and writes it as Parquet, either to
a local directory or to s3://bucket/prefix.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dst := args[0]

		settlementDate := time.Now()
		if collectDate != "" {
			t, err := time.Parse("2006-01-02", collectDate)
			if err != nil {
				return fmt.Errorf("invalid --date %q: %w", collectDate, err)
			}
			settlementDate = t
		}

		ctx := context.Background()
		collector := collect.NewDMOCollector()

		collected, err := collector.Collect(ctx, settlementDate)
		if err != nil {
			if err == types.ErrDataUnavailable {
				return fmt.Errorf("DMO data unavailable for %s", settlementDate.Format("2006-01-02"))
			}
			return fmt.Errorf("failed to collect data: %w", err)
		}

		log.Info().
			Int("bonds", len(collected.Bonds)).
			Int("failures", len(collected.Failures)).
			Msg("collected gilt reference data")

		var outPath string
		if s3Path, s3Err := collect.ParseS3(dst); s3Err == nil {
			outPath, err = storeToS3(ctx, collected, collectProfile, s3Path)
		} else {
			outPath, err = collect.StoreToPath(ctx, collected, dst)
		}
		if err != nil {
			return err
		}

		fmt.Printf("Stored data to %s\n", outPath)
		return nil
	},
}

func init() {
	collectCmd.Flags().StringVar(&collectProfile, "profile", "default", "AWS profile to use when destination is an s3:// path")
	collectCmd.Flags().StringVar(&collectDate, "date", "", "settlement date to collect (YYYY-MM-DD, default today)")
}

func getAwsConfig(ctx context.Context, profile string) (aws.Config, error) {
	if profile == "default" || profile == "" {
		return config.LoadDefaultConfig(ctx)
	}
	return config.LoadDefaultConfig(ctx, config.WithSharedConfigProfile(profile))
}

func storeToS3(ctx context.Context, collected *collect.CollectedBonds, profile string, dst *collect.S3Path) (string, error) {
	cfg, err := getAwsConfig(ctx, profile)
	if err != nil {
		return "", fmt.Errorf("failed to load AWS config: %w", err)
	}

	s3Client := s3.NewFromConfig(cfg)
	return collect.StoreToS3(ctx, collected, s3Client, dst)
}
