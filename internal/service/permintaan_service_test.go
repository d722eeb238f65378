package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/tegar-arsya/hanadap-sub000/internal/dto"
	"github.com/tegar-arsya/hanadap-sub000/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	pemohon   = Peminta{ID: uuid.New(), Email: "staf@kantor.test"}
	penyetuju = uuid.New()
)

func (f *fixture) ajukan(t *testing.T, lines map[uuid.UUID]int) *dto.PermintaanResponse {
	t.Helper()
	req := dto.BuatPermintaanRequest{Keterangan: "kebutuhan rapat"}
	for id, n := range lines {
		req.Details = append(req.Details, dto.DetailPermintaanRequest{BarangID: id.String(), JumlahDiminta: n})
	}
	resp, err := f.permintaan.Buat(context.Background(), pemohon, req)
	require.NoError(t, err)
	return resp
}

func detailUntuk(t *testing.T, p *dto.PermintaanResponse, barangID uuid.UUID) dto.DetailPermintaanResponse {
	t.Helper()
	for _, d := range p.Details {
		if d.BarangID == barangID.String() {
			return d
		}
	}
	t.Fatalf("no line for barang %s", barangID)
	return dto.DetailPermintaanResponse{}
}

func TestBuat_CreatesPendingRequest(t *testing.T) {
	f := newFixture()
	id := f.barang("Kertas")

	resp := f.ajukan(t, map[uuid.UUID]int{id: 4})
	assert.Equal(t, model.StatusPending, resp.Status)
	assert.NotEmpty(t, resp.Nomor)
	assert.Equal(t, pemohon.ID.String(), resp.PemintaID)
	require.Len(t, resp.Details, 1)
	assert.Equal(t, 4, resp.Details[0].JumlahDiminta)
	assert.Equal(t, 0, resp.Details[0].JumlahDisetujui)
	assert.Nil(t, resp.DiprosesOleh)
}

func TestBuat_Validation(t *testing.T) {
	f := newFixture()
	id := f.barang("Kertas")

	_, err := f.permintaan.Buat(context.Background(), pemohon, dto.BuatPermintaanRequest{})
	assert.ErrorIs(t, err, ErrPermintaanKosong)

	_, err = f.permintaan.Buat(context.Background(), pemohon, dto.BuatPermintaanRequest{
		Details: []dto.DetailPermintaanRequest{{BarangID: id.String(), JumlahDiminta: 0}},
	})
	assert.ErrorIs(t, err, ErrJumlahTidakValid)

	_, err = f.permintaan.Buat(context.Background(), pemohon, dto.BuatPermintaanRequest{
		Details: []dto.DetailPermintaanRequest{{BarangID: uuid.NewString(), JumlahDiminta: 1}},
	})
	assert.ErrorIs(t, err, ErrBarangNotFound)
}

func TestSetujui_DepletesEveryLineAndFinalizes(t *testing.T) {
	f := newFixture()
	sekarang := time.Date(2024, 6, 3, 10, 0, 0, 0, time.UTC)
	f.permintaan.now = func() time.Time { return sekarang }
	kertas := f.barang("Kertas")
	pulpen := f.barang("Pulpen")
	f.masuk(kertas, "2024-01-01", 50)
	f.masuk(kertas, "2024-01-15", 30)
	f.masuk(pulpen, "2024-01-01", 10)
	p := f.ajukan(t, map[uuid.UUID]int{kertas: 60, pulpen: 2})

	resp, err := f.permintaan.Setujui(context.Background(), uuid.MustParse(p.ID), penyetuju, nil)
	require.NoError(t, err)

	assert.Equal(t, model.StatusApproved, resp.Status)
	require.NotNil(t, resp.DiprosesOleh)
	assert.Equal(t, penyetuju.String(), *resp.DiprosesOleh)
	require.NotNil(t, resp.DiprosesPada)
	assert.Equal(t, sekarang.Format(time.RFC3339), *resp.DiprosesPada)
	assert.Equal(t, 60, detailUntuk(t, resp, kertas).JumlahDisetujui)
	assert.Equal(t, 2, detailUntuk(t, resp, pulpen).JumlahDisetujui)

	assert.Equal(t, 20, f.db.stokTotal(kertas))
	assert.Equal(t, 20, f.db.sumSisa(kertas))
	assert.Equal(t, 8, f.db.stokTotal(pulpen))

	keluar, err := f.stok.DaftarMutasi(context.Background(), dto.MutasiFilter{ReferensiID: p.ID})
	require.NoError(t, err)
	assert.Len(t, keluar.Data, 3) // two batches of kertas, one of pulpen

	stored, err := f.permintaan.Ambil(context.Background(), uuid.MustParse(p.ID))
	require.NoError(t, err)
	assert.Equal(t, model.StatusApproved, stored.Status)
	assert.Equal(t, 60, detailUntuk(t, stored, kertas).JumlahDisetujui)

	assert.Len(t, f.notifier.terkirim, 1)
	require.Len(t, f.db.aktivitas, 1)
	assert.Equal(t, AksiSetujuiPermintaan, f.db.aktivitas[0].Aksi)
}

func TestSetujui_PartialGrants(t *testing.T) {
	f := newFixture()
	kertas := f.barang("Kertas")
	pulpen := f.barang("Pulpen")
	f.masuk(kertas, "2024-01-01", 10)
	f.masuk(pulpen, "2024-01-01", 10)
	p := f.ajukan(t, map[uuid.UUID]int{kertas: 8, pulpen: 5})

	jatah := map[uuid.UUID]int{
		uuid.MustParse(detailUntuk(t, p, kertas).ID): 3,
		uuid.MustParse(detailUntuk(t, p, pulpen).ID): 0,
	}
	resp, err := f.permintaan.Setujui(context.Background(), uuid.MustParse(p.ID), penyetuju, jatah)
	require.NoError(t, err)

	assert.Equal(t, 3, detailUntuk(t, resp, kertas).JumlahDisetujui)
	assert.Equal(t, 0, detailUntuk(t, resp, pulpen).JumlahDisetujui)
	assert.Equal(t, 7, f.db.stokTotal(kertas))
	assert.Equal(t, 10, f.db.stokTotal(pulpen))
}

func TestSetujui_InvalidGrants(t *testing.T) {
	f := newFixture()
	kertas := f.barang("Kertas")
	f.masuk(kertas, "2024-01-01", 10)
	p := f.ajukan(t, map[uuid.UUID]int{kertas: 4})
	detail := uuid.MustParse(detailUntuk(t, p, kertas).ID)

	cases := map[string]map[uuid.UUID]int{
		"above requested": {detail: 5},
		"negative":        {detail: -1},
		"foreign line":    {uuid.New(): 1},
		"nothing granted": {detail: 0},
	}
	for name, jatah := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.permintaan.Setujui(context.Background(), uuid.MustParse(p.ID), penyetuju, jatah)
			assert.ErrorIs(t, err, ErrJumlahDisetujuiTidakValid)
		})
	}

	stored, err := f.permintaan.Ambil(context.Background(), uuid.MustParse(p.ID))
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, stored.Status)
	assert.Equal(t, 10, f.db.stokTotal(kertas))
}

func TestSetujui_InsufficientLineRollsBackWholeRequest(t *testing.T) {
	f := newFixture()
	cukup := f.barang("Kertas")
	kurang := f.barang("Tinta")
	f.masuk(cukup, "2024-01-01", 10)
	f.masuk(kurang, "2024-01-01", 2)
	p := f.ajukan(t, map[uuid.UUID]int{cukup: 5, kurang: 3})
	mutasiSebelum := f.db.jumlahMutasi()

	_, err := f.permintaan.Setujui(context.Background(), uuid.MustParse(p.ID), penyetuju, nil)
	require.ErrorIs(t, err, ErrStokTidakCukup)

	var stokErr *StokTidakCukupError
	require.True(t, errors.As(err, &stokErr))
	assert.Equal(t, kurang, stokErr.BarangID)

	assert.Equal(t, 10, f.db.stokTotal(cukup))
	assert.Equal(t, 2, f.db.stokTotal(kurang))
	assert.Equal(t, mutasiSebelum, f.db.jumlahMutasi())

	stored, err := f.permintaan.Ambil(context.Background(), uuid.MustParse(p.ID))
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, stored.Status)
	for _, d := range stored.Details {
		assert.Equal(t, 0, d.JumlahDisetujui)
	}
	assert.Empty(t, f.notifier.terkirim)
}

func TestSetujui_LinesOfSameItemAreSummed(t *testing.T) {
	f := newFixture()
	kertas := f.barang("Kertas")
	f.masuk(kertas, "2024-01-01", 10)

	resp, err := f.permintaan.Buat(context.Background(), pemohon, dto.BuatPermintaanRequest{
		Details: []dto.DetailPermintaanRequest{
			{BarangID: kertas.String(), JumlahDiminta: 6},
			{BarangID: kertas.String(), JumlahDiminta: 6},
		},
	})
	require.NoError(t, err)

	_, err = f.permintaan.Setujui(context.Background(), uuid.MustParse(resp.ID), penyetuju, nil)
	assert.ErrorIs(t, err, ErrStokTidakCukup)
	assert.Equal(t, 10, f.db.stokTotal(kertas))
	assert.Equal(t, 10, f.db.sumSisa(kertas))
}

func TestSetujui_FailureMidApprovalRollsBack(t *testing.T) {
	f := newFixture()
	a := f.barang("Kertas")
	b := f.barang("Pulpen")
	f.masuk(a, "2024-01-01", 10)
	f.masuk(b, "2024-01-01", 10)
	p := f.ajukan(t, map[uuid.UUID]int{a: 2, b: 2})

	// first line journals fine, second line's journal insert fails
	f.db.failMutasiAfter = f.db.mutasiInserts + 2

	_, err := f.permintaan.Setujui(context.Background(), uuid.MustParse(p.ID), penyetuju, nil)
	require.ErrorIs(t, err, errInjected)

	assert.Equal(t, 10, f.db.stokTotal(a))
	assert.Equal(t, 10, f.db.stokTotal(b))
	assert.Equal(t, 10, f.db.sumSisa(a))
	stored, err := f.permintaan.Ambil(context.Background(), uuid.MustParse(p.ID))
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, stored.Status)
}

func TestKeputusan_OnlyOnce(t *testing.T) {
	f := newFixture()
	kertas := f.barang("Kertas")
	f.masuk(kertas, "2024-01-01", 10)
	p := f.ajukan(t, map[uuid.UUID]int{kertas: 4})
	id := uuid.MustParse(p.ID)

	_, err := f.permintaan.Setujui(context.Background(), id, penyetuju, nil)
	require.NoError(t, err)

	_, err = f.permintaan.Setujui(context.Background(), id, penyetuju, nil)
	assert.ErrorIs(t, err, ErrStatusTidakValid)
	_, err = f.permintaan.Tolak(context.Background(), id, penyetuju, "terlambat")
	assert.ErrorIs(t, err, ErrStatusTidakValid)

	assert.Equal(t, 6, f.db.stokTotal(kertas))
}

func TestTolak_NoLedgerWrites(t *testing.T) {
	f := newFixture()
	kertas := f.barang("Kertas")
	f.masuk(kertas, "2024-01-01", 10)
	p := f.ajukan(t, map[uuid.UUID]int{kertas: 4})
	mutasiSebelum := f.db.jumlahMutasi()

	resp, err := f.permintaan.Tolak(context.Background(), uuid.MustParse(p.ID), penyetuju, "stok dialokasikan ke unit lain")
	require.NoError(t, err)
	assert.Equal(t, model.StatusRejected, resp.Status)
	assert.Equal(t, "stok dialokasikan ke unit lain", resp.CatatanPenolakan)
	assert.Equal(t, 0, detailUntuk(t, resp, kertas).JumlahDisetujui)

	assert.Equal(t, 10, f.db.stokTotal(kertas))
	assert.Equal(t, mutasiSebelum, f.db.jumlahMutasi())

	_, err = f.permintaan.Setujui(context.Background(), uuid.MustParse(p.ID), penyetuju, nil)
	assert.ErrorIs(t, err, ErrStatusTidakValid)
	assert.Equal(t, 10, f.db.stokTotal(kertas))
}

func TestKeputusan_UnknownRequest(t *testing.T) {
	f := newFixture()
	_, err := f.permintaan.Setujui(context.Background(), uuid.New(), penyetuju, nil)
	assert.ErrorIs(t, err, ErrPermintaanNotFound)
	_, err = f.permintaan.Tolak(context.Background(), uuid.New(), penyetuju, "")
	assert.ErrorIs(t, err, ErrPermintaanNotFound)
}

func TestSetujui_CollaboratorFailuresDoNotUndoDecision(t *testing.T) {
	f := newFixture()
	f.notifier.err = errors.New("redis down")
	f.db.failAktivitas = errors.New("log table locked")
	kertas := f.barang("Kertas")
	f.masuk(kertas, "2024-01-01", 10)
	p := f.ajukan(t, map[uuid.UUID]int{kertas: 4})

	resp, err := f.permintaan.Setujui(context.Background(), uuid.MustParse(p.ID), penyetuju, nil)
	require.NoError(t, err)
	assert.Equal(t, model.StatusApproved, resp.Status)
	assert.Equal(t, 6, f.db.stokTotal(kertas))
}

func TestKeputusan_SideEffectsOutliveCancelledRequest(t *testing.T) {
	f := newFixture()
	kertas := f.barang("Kertas")
	f.masuk(kertas, "2024-01-01", 10)
	p1 := f.ajukan(t, map[uuid.UUID]int{kertas: 4})
	p2 := f.ajukan(t, map[uuid.UUID]int{kertas: 4})

	// client went away after the decision was committed
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.permintaan.Setujui(ctx, uuid.MustParse(p1.ID), penyetuju, nil)
	require.NoError(t, err)
	assert.NoError(t, f.db.aktivitasCtxErr)

	_, err = f.permintaan.Tolak(ctx, uuid.MustParse(p2.ID), penyetuju, "stok untuk acara lain")
	require.NoError(t, err)
	assert.NoError(t, f.db.aktivitasCtxErr)

	require.Len(t, f.notifier.terkirim, 2)
	for _, e := range f.notifier.ctxErr {
		assert.NoError(t, e)
	}
}

func TestSetujui_ConcurrentApprovalsNeverOversell(t *testing.T) {
	f := newFixture()
	kertas := f.barang("Kertas")
	f.masuk(kertas, "2024-01-01", 10)
	p1 := f.ajukan(t, map[uuid.UUID]int{kertas: 6})
	p2 := f.ajukan(t, map[uuid.UUID]int{kertas: 6})

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for _, p := range []*dto.PermintaanResponse{p1, p2} {
		wg.Add(1)
		go func(id uuid.UUID) {
			defer wg.Done()
			_, err := f.permintaan.Setujui(context.Background(), id, penyetuju, nil)
			mu.Lock()
			errs = append(errs, err)
			mu.Unlock()
		}(uuid.MustParse(p.ID))
	}
	wg.Wait()

	sukses := 0
	for _, err := range errs {
		if err == nil {
			sukses++
		} else {
			assert.ErrorIs(t, err, ErrStokTidakCukup)
		}
	}
	assert.Equal(t, 1, sukses)
	assert.Equal(t, 4, f.db.stokTotal(kertas))
	assert.Equal(t, 4, f.db.sumSisa(kertas))
}

func TestDaftar_FiltersByRequester(t *testing.T) {
	f := newFixture()
	kertas := f.barang("Kertas")
	f.ajukan(t, map[uuid.UUID]int{kertas: 1})
	lain := Peminta{ID: uuid.New(), Email: "lain@kantor.test"}
	_, err := f.permintaan.Buat(context.Background(), lain, dto.BuatPermintaanRequest{
		Details: []dto.DetailPermintaanRequest{{BarangID: kertas.String(), JumlahDiminta: 2}},
	})
	require.NoError(t, err)

	resp, err := f.permintaan.Daftar(context.Background(), dto.PermintaanFilter{PemintaID: lain.ID.String()})
	require.NoError(t, err)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, lain.ID.String(), resp.Data[0].PemintaID)
	assert.Equal(t, int64(1), resp.Total)
}
