package repository

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsoncodec"
	"go.mongodb.org/mongo-driver/bson/bsonrw"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var decimalType = reflect.TypeOf(decimal.Decimal{})

// decimalRegistry maps decimal.Decimal to BSON Decimal128 so prices keep
// exact cents in storage. Without it the driver reflects over unexported
// fields and stores empty documents.
func decimalRegistry() *bsoncodec.Registry {
	reg := bson.NewRegistry()

	reg.RegisterTypeEncoder(decimalType, bsoncodec.ValueEncoderFunc(
		func(_ bsoncodec.EncodeContext, vw bsonrw.ValueWriter, val reflect.Value) error {
			if !val.IsValid() || val.Type() != decimalType {
				return bsoncodec.ValueEncoderError{Name: "decimalEncoder", Types: []reflect.Type{decimalType}, Received: val}
			}
			d128, err := primitive.ParseDecimal128(val.Interface().(decimal.Decimal).String())
			if err != nil {
				return fmt.Errorf("failed to convert decimal to Decimal128: %w", err)
			}
			return vw.WriteDecimal128(d128)
		}))

	reg.RegisterTypeDecoder(decimalType, bsoncodec.ValueDecoderFunc(
		func(_ bsoncodec.DecodeContext, vr bsonrw.ValueReader, val reflect.Value) error {
			if !val.CanSet() || val.Type() != decimalType {
				return bsoncodec.ValueDecoderError{Name: "decimalDecoder", Types: []reflect.Type{decimalType}, Received: val}
			}
			d128, err := vr.ReadDecimal128()
			if err != nil {
				return err
			}
			d, err := decimal.NewFromString(d128.String())
			if err != nil {
				return fmt.Errorf("failed to parse stored Decimal128: %w", err)
			}
			val.Set(reflect.ValueOf(d))
			return nil
		}))

	return reg
}

func ConnectMongoDB(ctx context.Context, uri, database string) (*mongo.Database, error) {
	clientOpts := options.Client().
		ApplyURI(uri).
		SetRegistry(decimalRegistry()).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(5 * time.Second).
		SetMaxPoolSize(100).
		SetMinPoolSize(10)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	// Ping to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return client.Database(database), nil
}
