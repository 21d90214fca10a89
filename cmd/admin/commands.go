package main

import (
	"fmt"
	"time"

	"medchat/backend/internal/auth"
	"medchat/backend/internal/directory"
	"medchat/backend/internal/models"
	"medchat/backend/internal/storage"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	f := NewDBFlags()
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the chat and directory tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := f.Open(cmd.Context())
			if err != nil {
				return err
			}
			if err := storage.NewStorageService(db).Migrate(); err != nil {
				return errors.Wrap(err, "migrate")
			}
			log.Info("migrations complete")
			return nil
		},
	}
	f.BindFlags(cmd.Flags())
	return cmd
}

type personFlags struct {
	FirstName string
	LastName  string
	Email     string
}

func (p *personFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&p.FirstName, "first-name", "", "first name")
	cmd.Flags().StringVar(&p.LastName, "last-name", "", "last name")
	cmd.Flags().StringVar(&p.Email, "email", "", "unique email address")
	_ = cmd.MarkFlagRequired("first-name")
	_ = cmd.MarkFlagRequired("email")
}

func newSeedPatientCmd() *cobra.Command {
	f := NewDBFlags()
	var p personFlags
	cmd := &cobra.Command{
		Use:   "seed-patient",
		Short: "Add a patient to the directory and print its id",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := f.Open(cmd.Context())
			if err != nil {
				return err
			}
			patient := &models.Patient{FirstName: p.FirstName, LastName: p.LastName, Email: p.Email}
			if err := directory.NewService(db, nil, 0).SavePatient(cmd.Context(), patient); err != nil {
				return errors.Wrap(err, "save patient")
			}
			log.WithField("user", patient.ID).Info("patient created")
			fmt.Fprintln(cmd.OutOrStdout(), patient.ID)
			return nil
		},
	}
	f.BindFlags(cmd.Flags())
	p.bind(cmd)
	return cmd
}

func newSeedClinicianCmd() *cobra.Command {
	f := NewDBFlags()
	var p personFlags
	var specialty, license string
	cmd := &cobra.Command{
		Use:   "seed-clinician",
		Short: "Add a clinician to the directory and print its id",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := f.Open(cmd.Context())
			if err != nil {
				return err
			}
			clinician := &models.Clinician{
				FirstName:     p.FirstName,
				LastName:      p.LastName,
				Email:         p.Email,
				Specialty:     specialty,
				LicenseNumber: license,
			}
			if err := directory.NewService(db, nil, 0).SaveClinician(cmd.Context(), clinician); err != nil {
				return errors.Wrap(err, "save clinician")
			}
			log.WithField("user", clinician.ID).Info("clinician created")
			fmt.Fprintln(cmd.OutOrStdout(), clinician.ID)
			return nil
		},
	}
	f.BindFlags(cmd.Flags())
	p.bind(cmd)
	cmd.Flags().StringVar(&specialty, "specialty", "", "clinical specialty")
	cmd.Flags().StringVar(&license, "license", "", "license number")
	return cmd
}

func newTokenCmd() *cobra.Command {
	f := NewTokenFlags()
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Sign a bearer token for a patient or clinician",
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := signToken(f)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	f.BindFlags(cmd.Flags())
	_ = cmd.MarkFlagRequired("id")
	_ = cmd.MarkFlagRequired("role")
	return cmd
}

func signToken(f *TokenFlags) (string, error) {
	if f.Secret == "" {
		return "", errors.New("a signing secret is required (--secret or JWT_SECRET)")
	}
	role := models.Role(f.Role)
	if !role.Valid() {
		return "", errors.Errorf("unknown role %q", f.Role)
	}
	ttl, err := time.ParseDuration(f.TTL)
	if err != nil || ttl <= 0 {
		return "", errors.Errorf("invalid ttl %q", f.TTL)
	}
	return auth.NewAuthenticator(f.Secret, f.Issuer, ttl).GenerateToken(f.ID, role)
}
