package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/tegar-arsya/hanadap-sub000/internal/dto"
	"github.com/tegar-arsya/hanadap-sub000/internal/model"
	"github.com/tegar-arsya/hanadap-sub000/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// ── In-memory ledger store ───────────────────────────────────────────────────
// memDB backs every stub repository. Transactions are serialized by txMu and
// rolled back by restoring a snapshot, which is enough to exercise the
// services' all-or-nothing and lost-update guarantees without Postgres.

type memDB struct {
	txMu sync.Mutex
	mu   sync.Mutex

	barang     map[uuid.UUID]model.Barang
	batch      map[uuid.UUID]model.BatchStok
	mutasi     []model.MutasiStok
	permintaan map[uuid.UUID]model.Permintaan
	aktivitas  []model.LogAktivitas
	seq        int64

	// fault injection
	failMutasiAfter int // fail the Nth mutasi insert (1-based) when > 0
	failAktivitas   error
	mutasiInserts   int
	aktivitasCtxErr error       // ctx.Err() seen by the last audit insert
	kunci           []uuid.UUID // barang ids in LockByIDTx call order
}

type memSnapshot struct {
	barang     map[uuid.UUID]model.Barang
	batch      map[uuid.UUID]model.BatchStok
	mutasi     []model.MutasiStok
	permintaan map[uuid.UUID]model.Permintaan
}

func newMemDB() *memDB {
	return &memDB{
		barang:     make(map[uuid.UUID]model.Barang),
		batch:      make(map[uuid.UUID]model.BatchStok),
		permintaan: make(map[uuid.UUID]model.Permintaan),
	}
}

func (db *memDB) snapshot() memSnapshot {
	db.mu.Lock()
	defer db.mu.Unlock()
	s := memSnapshot{
		barang:     make(map[uuid.UUID]model.Barang, len(db.barang)),
		batch:      make(map[uuid.UUID]model.BatchStok, len(db.batch)),
		mutasi:     append([]model.MutasiStok(nil), db.mutasi...),
		permintaan: make(map[uuid.UUID]model.Permintaan, len(db.permintaan)),
	}
	for k, v := range db.barang {
		s.barang[k] = v
	}
	for k, v := range db.batch {
		s.batch[k] = v
	}
	for k, v := range db.permintaan {
		v.Details = append([]model.PermintaanDetail(nil), v.Details...)
		s.permintaan[k] = v
	}
	return s
}

func (db *memDB) restore(s memSnapshot) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.barang, db.batch, db.mutasi, db.permintaan = s.barang, s.batch, s.mutasi, s.permintaan
}

// sumSisa returns Σ SisaJumlah over the item's batches.
func (db *memDB) sumSisa(barangID uuid.UUID) int {
	db.mu.Lock()
	defer db.mu.Unlock()
	total := 0
	for _, b := range db.batch {
		if b.BarangID == barangID {
			total += b.SisaJumlah
		}
	}
	return total
}

func (db *memDB) stokTotal(barangID uuid.UUID) int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.barang[barangID].StokTotal
}

func (db *memDB) jumlahMutasi() int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.mutasi)
}

func checkViolation() error { return &pgconn.PgError{Code: "23514", Message: "check constraint"} }

// ── TxManager ────────────────────────────────────────────────────────────────

type memTx struct{ db *memDB }

func (m memTx) WithinTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	m.db.txMu.Lock()
	defer m.db.txMu.Unlock()
	snap := m.db.snapshot()
	if err := fn(nil); err != nil {
		m.db.restore(snap)
		return err
	}
	return nil
}

// ── BarangRepository ─────────────────────────────────────────────────────────

type memBarangRepo struct{ db *memDB }

func (r memBarangRepo) Create(_ context.Context, b *model.Barang) error { return r.CreateTx(nil, b) }

func (r memBarangRepo) CreateTx(_ *gorm.DB, b *model.Barang) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	if b.KodeScan != nil {
		for _, x := range r.db.barang {
			if x.KodeScan != nil && *x.KodeScan == *b.KodeScan {
				return &pgconn.PgError{Code: "23505"}
			}
		}
	}
	b.CreatedAt = time.Now()
	cp := *b
	cp.Batches = nil
	r.db.barang[b.ID] = cp
	return nil
}

func (r memBarangRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Barang, error) {
	return r.LockByIDTx(nil, id)
}

func (r memBarangRepo) FindByIDWithBatches(_ context.Context, id uuid.UUID) (*model.Barang, error) {
	b, err := r.LockByIDTx(nil, id)
	if err != nil {
		return nil, err
	}
	batches, _ := memBatchRepo(r).ListByBarang(context.Background(), id)
	b.Batches = batches
	return b, nil
}

func (r memBarangRepo) List(_ context.Context, f dto.BarangFilter) ([]model.Barang, int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []model.Barang
	for _, b := range r.db.barang {
		if f.Nama != "" && !strings.Contains(strings.ToLower(b.Nama), strings.ToLower(f.Nama)) {
			continue
		}
		if f.Status != "" && b.StatusStok() != f.Status {
			continue
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Nama < out[j].Nama })
	return out, int64(len(out)), nil
}

func (r memBarangRepo) FindByKodeScanTx(_ *gorm.DB, kode string) (*model.Barang, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, b := range r.db.barang {
		if b.KodeScan != nil && *b.KodeScan == kode {
			cp := b
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r memBarangRepo) FindByNamaTx(_ *gorm.DB, nama string) (*model.Barang, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, b := range r.db.barang {
		if strings.EqualFold(b.Nama, nama) {
			cp := b
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r memBarangRepo) LockByIDTx(_ *gorm.DB, id uuid.UUID) (*model.Barang, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.kunci = append(r.db.kunci, id)
	b, ok := r.db.barang[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &b, nil
}

func (r memBarangRepo) UpdateStokTotalTx(_ *gorm.DB, id uuid.UUID, delta int) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	b, ok := r.db.barang[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if b.StokTotal+delta < 0 {
		return checkViolation()
	}
	b.StokTotal += delta
	r.db.barang[id] = b
	return nil
}

// ── BatchRepository ──────────────────────────────────────────────────────────

type memBatchRepo struct{ db *memDB }

func (r memBatchRepo) CreateTx(_ *gorm.DB, b *model.BatchStok) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	r.db.seq++
	b.Urutan = r.db.seq
	b.CreatedAt = time.Now()
	r.db.batch[b.ID] = *b
	return nil
}

func (r memBatchRepo) sorted(barangID uuid.UUID, hanyaTersedia bool) []model.BatchStok {
	var out []model.BatchStok
	for _, b := range r.db.batch {
		if b.BarangID != barangID || (hanyaTersedia && b.SisaJumlah <= 0) {
			continue
		}
		out = append(out, b)
	}
	urutFIFO(out)
	return out
}

func (r memBatchRepo) ListTersediaForUpdateTx(_ *gorm.DB, barangID uuid.UUID) ([]model.BatchStok, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return r.sorted(barangID, true), nil
}

func (r memBatchRepo) KurangiSisaTx(_ *gorm.DB, id uuid.UUID, jumlah int) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	b, ok := r.db.batch[id]
	if !ok || b.SisaJumlah < jumlah {
		return repository.ErrBatchBerubah
	}
	b.SisaJumlah -= jumlah
	r.db.batch[id] = b
	return nil
}

func (r memBatchRepo) ListByBarang(_ context.Context, barangID uuid.UUID) ([]model.BatchStok, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return r.sorted(barangID, false), nil
}

func (r memBatchRepo) Ringkasan(_ context.Context, barangID uuid.UUID) (int, int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	sisa, n := 0, int64(0)
	for _, b := range r.db.batch {
		if b.BarangID == barangID {
			sisa += b.SisaJumlah
			n++
		}
	}
	return sisa, n, nil
}

// ── MutasiStokRepository ─────────────────────────────────────────────────────

type memMutasiRepo struct{ db *memDB }

var errInjected = errors.New("injected storage failure")

func (r memMutasiRepo) CreateTx(_ *gorm.DB, m *model.MutasiStok) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.mutasiInserts++
	if r.db.failMutasiAfter > 0 && r.db.mutasiInserts == r.db.failMutasiAfter {
		return errInjected
	}
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	m.CreatedAt = time.Now()
	r.db.mutasi = append(r.db.mutasi, *m)
	return nil
}

func (r memMutasiRepo) List(_ context.Context, f dto.MutasiFilter) ([]model.MutasiStok, int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []model.MutasiStok
	for _, m := range r.db.mutasi {
		if f.BarangID != "" && m.BarangID.String() != f.BarangID {
			continue
		}
		if f.Tipe != "" && m.Tipe != f.Tipe {
			continue
		}
		if f.ReferensiID != "" && (m.ReferensiID == nil || m.ReferensiID.String() != f.ReferensiID) {
			continue
		}
		out = append(out, m)
	}
	return out, int64(len(out)), nil
}

// ── PermintaanRepository ─────────────────────────────────────────────────────

type memPermintaanRepo struct{ db *memDB }

func (r memPermintaanRepo) Create(_ context.Context, p *model.Permintaan) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.CreatedAt = time.Now()
	cp := *p
	cp.Details = make([]model.PermintaanDetail, len(p.Details))
	for i, d := range p.Details {
		if d.ID == uuid.Nil {
			d.ID = uuid.New()
			p.Details[i].ID = d.ID
		}
		d.PermintaanID = p.ID
		d.Barang = nil
		cp.Details[i] = d
	}
	r.db.permintaan[p.ID] = cp
	return nil
}

// load returns a detached copy with each line's Barang attached. Caller holds mu.
func (r memPermintaanRepo) load(id uuid.UUID) (*model.Permintaan, error) {
	p, ok := r.db.permintaan[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	p.Details = append([]model.PermintaanDetail(nil), p.Details...)
	for i := range p.Details {
		if b, ok := r.db.barang[p.Details[i].BarangID]; ok {
			b := b
			p.Details[i].Barang = &b
		}
	}
	sort.Slice(p.Details, func(i, j int) bool { return p.Details[i].ID.String() < p.Details[j].ID.String() })
	return &p, nil
}

func (r memPermintaanRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Permintaan, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return r.load(id)
}

func (r memPermintaanRepo) List(_ context.Context, f dto.PermintaanFilter) ([]model.Permintaan, int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []model.Permintaan
	for id, p := range r.db.permintaan {
		if f.Status != "" && p.Status != f.Status {
			continue
		}
		if f.PemintaID != "" && p.PemintaID.String() != f.PemintaID {
			continue
		}
		loaded, _ := r.load(id)
		out = append(out, *loaded)
	}
	return out, int64(len(out)), nil
}

func (r memPermintaanRepo) LockByIDTx(_ *gorm.DB, id uuid.UUID) (*model.Permintaan, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return r.load(id)
}

func (r memPermintaanRepo) UpdateJumlahDisetujuiTx(_ *gorm.DB, detailID uuid.UUID, jumlah int) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for id, p := range r.db.permintaan {
		for i := range p.Details {
			if p.Details[i].ID == detailID {
				details := append([]model.PermintaanDetail(nil), p.Details...)
				details[i].JumlahDisetujui = jumlah
				p.Details = details
				r.db.permintaan[id] = p
				return nil
			}
		}
	}
	return gorm.ErrRecordNotFound
}

func (r memPermintaanRepo) UpdateKeputusanTx(_ *gorm.DB, p *model.Permintaan) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	cur, ok := r.db.permintaan[p.ID]
	if !ok || cur.Status != model.StatusPending {
		return gorm.ErrRecordNotFound
	}
	cur.Status = p.Status
	cur.DiprosesOleh = p.DiprosesOleh
	cur.DiprosesPada = p.DiprosesPada
	cur.CatatanPenolakan = p.CatatanPenolakan
	r.db.permintaan[p.ID] = cur
	return nil
}

// ── AktivitasRepository ──────────────────────────────────────────────────────

type memAktivitasRepo struct{ db *memDB }

func (r memAktivitasRepo) Create(ctx context.Context, l *model.LogAktivitas) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.aktivitasCtxErr = ctx.Err()
	if r.db.failAktivitas != nil {
		return r.db.failAktivitas
	}
	r.db.aktivitas = append(r.db.aktivitas, *l)
	return nil
}

// ── Notifier / numbering stubs ───────────────────────────────────────────────

type stubNotifier struct {
	mu       sync.Mutex
	terkirim []uuid.UUID
	ctxErr   []error // ctx.Err() seen on each call
	err      error
}

func (n *stubNotifier) KirimKeputusan(ctx context.Context, p *model.Permintaan) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.ctxErr = append(n.ctxErr, ctx.Err())
	if n.err != nil {
		return n.err
	}
	n.terkirim = append(n.terkirim, p.ID)
	return nil
}

type stubNomor struct {
	mu sync.Mutex
	n  int
}

func (s *stubNomor) Nomor() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return fmt.Sprintf("PMT-TEST-%04d", s.n)
}

// ── Fixture ──────────────────────────────────────────────────────────────────

type fixture struct {
	db         *memDB
	stok       *stokService
	permintaan *permintaanService
	notifier   *stubNotifier
}

func newFixture() *fixture {
	db := newMemDB()
	stok := NewStokService(memTx{db}, memBarangRepo{db}, memBatchRepo{db}, memMutasiRepo{db}).(*stokService)
	notifier := &stubNotifier{}
	permintaan := NewPermintaanService(
		memTx{db}, memPermintaanRepo{db}, memBarangRepo{db}, stok,
		NewAktivitasService(memAktivitasRepo{db}), notifier, &stubNomor{},
	).(*permintaanService)
	return &fixture{db: db, stok: stok, permintaan: permintaan, notifier: notifier}
}

func (f *fixture) barang(nama string) uuid.UUID {
	b := &model.Barang{Nama: nama, Satuan: "pcs"}
	if err := (memBarangRepo{f.db}).Create(context.Background(), b); err != nil {
		panic(err)
	}
	return b.ID
}

func (f *fixture) masuk(barangID uuid.UUID, tanggal string, jumlah int) *model.BatchStok {
	t, err := time.Parse("2006-01-02", tanggal)
	if err != nil {
		panic(err)
	}
	batch, err := f.stok.Replenish(context.Background(), barangID, TambahStokInput{Jumlah: jumlah, TanggalMasuk: &t})
	if err != nil {
		panic(err)
	}
	return batch
}
