package store

import (
	"encoding/json"
	"os"
	"time"

	"github.com/boltdb/bolt"
	"github.com/pkg/errors"

	"dev.rubentxu.ml-cluster/internal/core/domain"
)

// ErrHandleNotFound indica que el identificador no está rastreado en el store.
var ErrHandleNotFound = errors.New("handle not found")

// BoltHandleStore persiste los handles en disco. Sobrevive a un llamador
// muerto en mitad del bootstrap, de modo que los procesos filtrados pueden
// localizarse y pararse fuera de banda.
type BoltHandleStore struct {
	db     *bolt.DB
	bucket string
}

func NewBoltHandleStore(filename string, mode os.FileMode, bucket string) (*BoltHandleStore, error) {
	db, err := bolt.Open(filename, mode, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, errors.Wrapf(err, "unable to open %s", filename)
	}
	s := &BoltHandleStore{db: db, bucket: bucket}
	if err := s.createBucket(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *BoltHandleStore) createBucket() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(s.bucket))
		return errors.Wrapf(err, "unable to create bucket %s", s.bucket)
	})
}

func (s *BoltHandleStore) Put(id string, handle domain.WorkerHandle) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		buf, err := json.Marshal(handle)
		if err != nil {
			return errors.Wrap(err, "unable to marshal handle")
		}
		return tx.Bucket([]byte(s.bucket)).Put([]byte(id), buf)
	})
}

func (s *BoltHandleStore) Get(id string) (domain.WorkerHandle, error) {
	var handle domain.WorkerHandle
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket([]byte(s.bucket)).Get([]byte(id))
		if v == nil {
			return ErrHandleNotFound
		}
		return json.Unmarshal(v, &handle)
	})
	return handle, err
}

func (s *BoltHandleStore) List() ([]domain.WorkerHandle, error) {
	var handles []domain.WorkerHandle
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(s.bucket)).ForEach(func(k, v []byte) error {
			var handle domain.WorkerHandle
			if err := json.Unmarshal(v, &handle); err != nil {
				return errors.Wrapf(err, "unable to unmarshal handle %s", k)
			}
			handles = append(handles, handle)
			return nil
		})
	})
	return handles, err
}

func (s *BoltHandleStore) Delete(id string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(s.bucket))
		if b.Get([]byte(id)) == nil {
			return ErrHandleNotFound
		}
		return b.Delete([]byte(id))
	})
}

func (s *BoltHandleStore) Close() error {
	return s.db.Close()
}
