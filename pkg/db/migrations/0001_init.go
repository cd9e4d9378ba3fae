package migrations

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/pressly/goose/v3"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

func init() {
	goose.AddMigrationContext(upInit, downInit)
}

type Object struct {
	OID       string    `gorm:"column:oid;type:text;primaryKey"`
	NDet      int       `gorm:"column:ndet;type:integer;not null;default:0"`
	MeanRA    float64   `gorm:"column:meanra;type:double precision;not null"`
	MeanDec   float64   `gorm:"column:meandec;type:double precision;not null"`
	SigmaRA   float64   `gorm:"column:sigmara;type:double precision"`
	SigmaDec  float64   `gorm:"column:sigmadec;type:double precision"`
	FirstMJD  float64   `gorm:"column:firstmjd;type:double precision;index"`
	LastMJD   float64   `gorm:"column:lastmjd;type:double precision;index"`
	DeltaJD   float64   `gorm:"column:deltajd;type:double precision"`
	Corrected bool      `gorm:"column:corrected;type:boolean;not null;default:false"`
	Stellar   bool      `gorm:"column:stellar;type:boolean;not null;default:false"`
	CreatedAt time.Time `gorm:"type:timestamptz;not null;default:now();autoCreateTime"`
	UpdatedAt time.Time `gorm:"type:timestamptz;not null;default:now();autoUpdateTime"`
}

type Classification struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	OID            string    `gorm:"column:oid;type:text;not null;uniqueIndex:ux_classifications_oid_clf,priority:1"`
	ClassifierName string    `gorm:"column:classifier_name;type:text;not null;uniqueIndex:ux_classifications_oid_clf,priority:2"`
	ClassName      string    `gorm:"column:class_name;type:text;not null;uniqueIndex:ux_classifications_oid_clf,priority:3"`
	Probability    float64   `gorm:"column:probability;type:double precision;not null"`
	Ranking        int       `gorm:"column:ranking;type:integer"`
	Object         Object    `gorm:"foreignKey:OID;references:OID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

type Detection struct {
	Candid      int64             `gorm:"column:candid;type:bigint;primaryKey"`
	OID         string            `gorm:"column:oid;type:text;not null;index"`
	MJD         float64           `gorm:"column:mjd;type:double precision;not null"`
	FID         int               `gorm:"column:fid;type:integer;not null"`
	RA          float64           `gorm:"column:ra;type:double precision;not null"`
	Dec         float64           `gorm:"column:dec;type:double precision;not null"`
	MagPSF      float64           `gorm:"column:magpsf;type:double precision;not null"`
	SigmaPSF    float64           `gorm:"column:sigmapsf;type:double precision;not null"`
	MagPSFCorr  *float64          `gorm:"column:magpsf_corr;type:double precision"`
	SigmaCorr   *float64          `gorm:"column:sigmapsf_corr;type:double precision"`
	RB          float64           `gorm:"column:rb;type:double precision"`
	IsDiffPos   int               `gorm:"column:isdiffpos;type:integer;not null;default:1"`
	HasStamp    bool              `gorm:"column:has_stamp;type:boolean;not null;default:false"`
	ExtraFields datatypes.JSONMap `gorm:"column:extra_fields;type:jsonb"`
	Object      Object            `gorm:"foreignKey:OID;references:OID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

type NonDetection struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	OID        string    `gorm:"column:oid;type:text;not null;uniqueIndex:ux_non_detections_epoch,priority:1"`
	FID        int       `gorm:"column:fid;type:integer;not null;uniqueIndex:ux_non_detections_epoch,priority:2"`
	MJD        float64   `gorm:"column:mjd;type:double precision;not null;uniqueIndex:ux_non_detections_epoch,priority:3"`
	DiffMagLim float64   `gorm:"column:diffmaglim;type:double precision;not null"`
	Object     Object    `gorm:"foreignKey:OID;references:OID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func upInit(ctx context.Context, tx *sql.Tx) error {
	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: tx, PreferSimpleProtocol: true}), &gorm.Config{
		NamingStrategy: schema.NamingStrategy{SingularTable: false},
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return err
	}

	if err := gormDB.WithContext(ctx).AutoMigrate(
		&Object{},
		&Classification{},
		&Detection{},
		&NonDetection{},
	); err != nil {
		return err
	}

	m := gormDB.WithContext(ctx).Migrator()
	if err := m.CreateConstraint(&Classification{}, "Object"); err != nil {
		return err
	}
	if err := m.CreateConstraint(&Detection{}, "Object"); err != nil {
		return err
	}
	if err := m.CreateConstraint(&NonDetection{}, "Object"); err != nil {
		return err
	}

	// q3c powers the conesearch endpoint. The extension must already be
	// available on the server; CREATE EXTENSION only activates it.
	if _, err := tx.ExecContext(ctx, `CREATE EXTENSION IF NOT EXISTS q3c`); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`CREATE INDEX IF NOT EXISTS ix_objects_q3c ON objects (q3c_ang2ipix(meanra, meandec))`,
	); err != nil {
		return err
	}

	return nil
}

func downInit(ctx context.Context, tx *sql.Tx) error {
	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: tx, PreferSimpleProtocol: true}), &gorm.Config{
		NamingStrategy: schema.NamingStrategy{SingularTable: false},
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DROP INDEX IF EXISTS ix_objects_q3c`); err != nil {
		return err
	}

	if err := gormDB.WithContext(ctx).Migrator().DropTable(
		&NonDetection{},
		&Detection{},
		&Classification{},
		&Object{},
	); err != nil {
		return err
	}

	return nil
}
