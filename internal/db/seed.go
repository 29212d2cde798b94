package db

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/diewo77/go-rentals/internal/config"
	"github.com/diewo77/go-rentals/internal/models"
	"github.com/diewo77/go-rentals/internal/services"
)

type entry struct {
	value, label, parent string
}

var defaultLists = map[models.ParameterType][]entry{
	models.ParamDepositType: {
		{"cash", "Espèces", ""}, {"cheque", "Chèque", ""}, {"card", "Carte bancaire", ""}, {"transfer", "Virement", ""},
	},
	models.ParamAnomalyType: {
		{"dent", "Choc", ""}, {"scratch", "Rayure", ""}, {"crack", "Fissure", ""}, {"paint_chip", "Éclat peinture", ""},
		{"bumper", "Pare-choc endommagé", ""}, {"mirror", "Rétroviseur cassé", ""}, {"glass", "Vitre fissurée", ""},
		{"tyre", "Pneu usé", ""}, {"other", "Autre", ""},
	},
	models.ParamPaymentMethod: {
		{"cash", "Espèces", ""}, {"cheque", "Chèque", ""}, {"bill", "Traite", ""}, {"transfer", "Virement", ""},
	},
	models.ParamExpenseCategory: {
		{"fixed", "Charges fixes", ""}, {"vehicle", "Charges véhicule", ""}, {"misc", "Charges diverses", ""},
	},
}

var expenseTypeLabels = map[string]string{
	"rent": "Loyer", "electricity": "Électricité", "water": "Eau", "internet": "Internet", "phone": "Téléphone",
	"salary": "Salaire", "social_security": "CNSS", "accounting": "Comptabilité", "insurance": "Assurance",
	"fuel": "Carburant", "maintenance": "Entretien", "repair": "Réparation", "tires": "Pneus",
	"inspection": "Visite technique", "vignette": "Vignette", "washing": "Lavage", "parts": "Pièces",
	"supplies": "Fournitures", "advertising": "Publicité", "fees": "Honoraires", "taxes": "Taxes", "other": "Autre",
}

// Seed inserts the parameter lists, the general configuration defaults and
// an initial admin account. Each part is skipped when already present, so
// Seed can run at every start.
func Seed(ctx context.Context, db *gorm.DB, app config.AppConfig) error {
	if err := seedLists(ctx, db); err != nil {
		return err
	}
	if err := seedGeneralConfig(ctx, db); err != nil {
		return err
	}
	return seedAdmin(ctx, db, app)
}

func seedLists(ctx context.Context, db *gorm.DB) error {
	var n int64
	if err := db.WithContext(ctx).Model(&models.Parameter{}).
		Where("type <> ?", models.ParamGeneralConfig).Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	var rows []models.Parameter
	for t, entries := range defaultLists {
		for i, e := range entries {
			rows = append(rows, models.Parameter{Type: t, Value: e.value, Label: e.label, ParentValue: e.parent, Order: i + 1, Active: true})
		}
	}
	for cat, types := range models.ExpenseTypes {
		for i, v := range types {
			label := expenseTypeLabels[v]
			if label == "" {
				label = v
			}
			rows = append(rows, models.Parameter{Type: models.ParamExpenseType, Value: v, Label: label, ParentValue: string(cat), Order: i + 1, Active: true})
		}
	}
	if err := db.WithContext(ctx).CreateInBatches(rows, 50).Error; err != nil {
		return fmt.Errorf("seed parameters: %w", err)
	}
	slog.Info("parameters seeded", "count", len(rows))
	return nil
}

func seedGeneralConfig(ctx context.Context, db *gorm.DB) error {
	def := services.DefaultSettings()
	values := map[string]string{
		services.KeyCurrency:  def.Currency,
		services.KeyDecimals:  fmt.Sprint(def.Decimals),
		services.KeyVATRate:   def.VATRate.String(),
		services.KeyStampDuty: def.StampDuty.StringFixed(def.Decimals),
	}
	for key, value := range values {
		row := models.Parameter{Type: models.ParamGeneralConfig, Key: key}
		err := db.WithContext(ctx).
			Where(&models.Parameter{Type: models.ParamGeneralConfig, Key: key}).
			Attrs(models.Parameter{Label: key, Value: value, Active: true}).
			FirstOrCreate(&row).Error
		if err != nil {
			return fmt.Errorf("seed general config %s: %w", key, err)
		}
	}
	return nil
}

func seedAdmin(ctx context.Context, db *gorm.DB, app config.AppConfig) error {
	if app.AdminEmail == "" || app.AdminPassword == "" {
		return nil
	}
	users := services.NewUserService(db)
	existing, err := users.ByEmail(ctx, app.AdminEmail)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}
	_, err = users.Create(ctx, services.NewUser{Email: app.AdminEmail, Name: "Administrator", Role: models.RoleAdmin, Password: app.AdminPassword})
	if err != nil {
		return fmt.Errorf("seed admin user: %w", err)
	}
	slog.Info("admin user created", "email", app.AdminEmail)
	return nil
}
